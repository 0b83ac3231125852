package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/constants"
	"github.com/JaneXU85/pension-trust-abm/internal/logging"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/rng"
	"github.com/JaneXU85/pension-trust-abm/internal/simulation"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation",
		Long: `Run one simulation using the model section of the config, overridden by flags.

Examples:
  trustsim run --trust 0.6 --spillover --fraction 0.5
  trustsim run --spillover --mode neighbor --steps 100 --save
  trustsim run --random-seed --trace trace.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")
			tracePath, _ := cmd.Flags().GetString("trace")
			randomSeed, _ := cmd.Flags().GetBool("random-seed")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			p, err := applyParamFlags(cmd, cfg.Model)
			if err != nil {
				return err
			}
			if randomSeed {
				seed, err := rng.NewSeed()
				if err != nil {
					return fmt.Errorf("failed to generate seed: %w", err)
				}
				p.Seed = seed
			}

			var tracer *logging.StepTracer
			if tracePath != "" {
				tracer, err = logging.NewStepTracer(tracePath)
				if err != nil {
					return err
				}
				defer tracer.Close()
			}

			engine, err := simulation.New(p,
				simulation.WithLogger(logger),
				simulation.WithObserver(func(r simulation.StepReport) {
					tracer.Log(map[string]any{
						"step":               r.Step,
						"punished_broker":    r.PunishedBroker,
						"trust_hits":         r.TrustHits,
						"dropped":            r.Dropped,
						"active":             r.Active,
						"mean_trust":         r.MeanTrust,
						"participation_rate": r.ParticipationRate,
						"cooperation_rate":   r.CooperationRate,
						"collapsed":          r.Collapsed,
					})
				}),
			)
			if err != nil {
				return fmt.Errorf("failed to create simulation: %w", err)
			}

			reporters := engine.Run(p.Steps)
			rec := models.NewRunRecord(uuid.NewString(), engine.Params(), reporters)

			if save {
				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.SaveRuns(cmd.Context(), []models.RunRecord{rec}); err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
				logger.Info("run saved", "id", rec.ID, "db", s.Path())
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(rec)
			}
			printRun(cmd, rec)
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Bool("save", false, "Store the run in the results database")
	cmd.Flags().String("trace", "", "Write a per-step JSONL trace to this file")
	cmd.Flags().Bool("random-seed", false, "Draw a random seed instead of using --seed")

	return cmd
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Int("citizens", constants.DefaultNumCitizens, "Number of citizens")
	cmd.Flags().Int("brokers", constants.DefaultNumBrokers, "Number of brokers")
	cmd.Flags().Float64("trust", constants.DefaultInitialTrust, "Initial trust of every citizen (0-1)")
	cmd.Flags().Bool("spillover", false, "Enable spillover of punishment onto trust")
	cmd.Flags().Float64("fraction", constants.DefaultSpilloverFraction, "Spillover fraction (0-1)")
	cmd.Flags().String("mode", string(constants.SpilloverFixed), "Spillover mode: fixed, neighbor")
	cmd.Flags().Float64("decrement", constants.DefaultTrustDecrement, "Trust lost per spillover hit (fixed mode)")
	cmd.Flags().Float64("threshold", constants.ParticipationThreshold, "Trust below which citizens stop participating")
	cmd.Flags().Int("steps", constants.DefaultSteps, "Number of steps")
	cmd.Flags().Int64("seed", constants.DefaultSeed, "Random seed")
}

// applyParamFlags overrides p with every parameter flag set on the command
// line and validates the result.
func applyParamFlags(cmd *cobra.Command, p models.Params) (models.Params, error) {
	flags := cmd.Flags()
	if flags.Changed("citizens") {
		p.NumCitizens, _ = flags.GetInt("citizens")
	}
	if flags.Changed("brokers") {
		p.NumBrokers, _ = flags.GetInt("brokers")
	}
	if flags.Changed("trust") {
		p.InitialTrust, _ = flags.GetFloat64("trust")
	}
	if flags.Changed("spillover") {
		p.SpilloverEnabled, _ = flags.GetBool("spillover")
	}
	if flags.Changed("fraction") {
		p.SpilloverFraction, _ = flags.GetFloat64("fraction")
	}
	if flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		p.SpilloverMode = constants.SpilloverMode(mode)
	}
	if flags.Changed("decrement") {
		p.TrustDecrement, _ = flags.GetFloat64("decrement")
	}
	if flags.Changed("threshold") {
		p.ParticipationThreshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("steps") {
		p.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		p.Seed, _ = flags.GetInt64("seed")
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func printRun(cmd *cobra.Command, rec models.RunRecord) {
	out := cmd.OutOrStdout()
	spillover := "off"
	if rec.SpilloverEnabled {
		spillover = fmt.Sprintf("%s, fraction %g", rec.SpilloverMode, rec.SpilloverFraction)
	}

	fmt.Fprintf(out, "Run %s\n", rec.ID)
	fmt.Fprintf(out, "  Population:     %d citizens, %d brokers\n", rec.NumCitizens, rec.NumBrokers)
	fmt.Fprintf(out, "  Initial trust:  %.2f\n", rec.InitialTrust)
	fmt.Fprintf(out, "  Spillover:      %s\n", spillover)
	fmt.Fprintf(out, "  Steps:          %d (seed %d)\n", rec.Steps, rec.Seed)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Mean trust:     %.4f\n", rec.FinalTrust)
	fmt.Fprintf(out, "  Participation:  %.4f\n", rec.ParticipationRate)
	fmt.Fprintf(out, "  Cooperation:    %.4f\n", rec.FinalCooperation)
	if rec.Collapsed {
		fmt.Fprintf(out, "  Collapsed at step %d\n", rec.CollapseStep)
	}
}
