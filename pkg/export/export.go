package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/pvcast/infra/runlog"
)

// WriteJSON writes the run records to w as a JSON array.
func WriteJSON(w io.Writer, recs []runlog.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if recs == nil {
		recs = []runlog.Record{}
	}
	return enc.Encode(recs)
}

// WriteCSV writes the run records to w in CSV format. MAE is empty for runs
// without a score.
func WriteCSV(w io.Writer, recs []runlog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "started_at", "mode", "model", "input", "samples", "batches", "mae", "duration_ms", "error"}); err != nil {
		return err
	}
	for _, r := range recs {
		mae := ""
		if r.MAE != nil {
			mae = strconv.FormatFloat(*r.MAE, 'f', -1, 64)
		}
		rec := []string{
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Mode,
			r.Model,
			r.Input,
			strconv.Itoa(r.Samples),
			strconv.Itoa(r.Batches),
			mae,
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			r.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
