package experiment

import (
	"math"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// Stat is a mean and sample standard deviation.
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summary aggregates the runs of one (label, initial trust) cell.
type Summary struct {
	Label        string  `json:"label"`
	InitialTrust float64 `json:"initial_trust"`
	Runs         int     `json:"runs"`

	FinalTrust    Stat `json:"final_trust"`
	Participation Stat `json:"participation_rate"`
	Cooperation   Stat `json:"final_cooperation"`

	// CollapseRate is the fraction of runs that collapsed.
	CollapseRate float64 `json:"collapse_rate"`
}

type cellKey struct {
	label string
	trust float64
}

// Summarize groups records by label and initial trust. Groups are returned in
// order of first appearance. Std is the sample standard deviation and is 0 for
// groups with a single run.
func Summarize(records []models.RunRecord) []Summary {
	var order []cellKey
	groups := make(map[cellKey][]models.RunRecord)
	for _, rec := range records {
		k := cellKey{label: rec.Label, trust: rec.InitialTrust}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	out := make([]Summary, 0, len(order))
	for _, k := range order {
		recs := groups[k]
		trust := make([]float64, len(recs))
		part := make([]float64, len(recs))
		coop := make([]float64, len(recs))
		collapsed := 0
		for i, rec := range recs {
			trust[i] = rec.FinalTrust
			part[i] = rec.ParticipationRate
			coop[i] = rec.FinalCooperation
			if rec.Collapsed {
				collapsed++
			}
		}
		out = append(out, Summary{
			Label:         k.label,
			InitialTrust:  k.trust,
			Runs:          len(recs),
			FinalTrust:    describe(trust),
			Participation: describe(part),
			Cooperation:   describe(coop),
			CollapseRate:  float64(collapsed) / float64(len(recs)),
		})
	}
	return out
}

func describe(xs []float64) Stat {
	if len(xs) == 0 {
		return Stat{}
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return Stat{Mean: mean}
	}

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return Stat{Mean: mean, Std: math.Sqrt(ss / float64(len(xs)-1))}
}
