// Package simulation runs the pension trust model.
//
// An Engine holds a population of citizens partitioned across brokers. Each
// step one broker is punished for misconduct and, when spillover is enabled,
// the punishment erodes trust across the population according to the
// configured spillover rule. Citizens whose trust drops below the
// participation threshold stop contributing for good.
//
// Engines are deterministic for a given seed and are not safe for concurrent
// use. Independent engines share nothing and may run in parallel.
//
// Usage:
//
//	p := models.DefaultParams()
//	p.InitialTrust = 0.6
//	p.SpilloverEnabled = true
//	p.SpilloverFraction = 0.5
//	eng, err := simulation.New(p)
//	if err != nil {
//	    return err
//	}
//	rep := eng.Run(p.Steps)
//	fmt.Println(rep.MeanTrust, rep.ParticipationRate)
package simulation
