package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
)

// CSVHeader lists the columns written by ExportCSV.
var CSVHeader = []string{
	"replication_id",
	"initial_trust",
	"spillover_enabled",
	"spillover_fraction",
	"spillover_label",
	"final_trust",
	"final_cooperation",
	"participation_rate",
	"run_id",
	"sweep_id",
}

// ExportCSV writes one row per record with a header row.
func ExportCSV(w io.Writer, records []models.RunRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.ReplicationID),
			formatFloat(rec.InitialTrust),
			strconv.FormatBool(rec.SpilloverEnabled),
			formatFloat(rec.SpilloverFraction),
			rec.Label,
			formatFloat(rec.FinalTrust),
			formatFloat(rec.FinalCooperation),
			formatFloat(rec.ParticipationRate),
			rec.ID,
			rec.SweepID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row for run %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ExportJSONL writes one JSON object per line per record.
func ExportJSONL(w io.Writer, records []models.RunRecord) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode run %s: %w", rec.ID, err)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
