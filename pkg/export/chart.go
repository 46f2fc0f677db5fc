package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/pvcast/infra/runlog"
)

// WriteChart renders the MAE of scored runs as an HTML line chart with one
// series per model, oldest run first. Runs without a score are skipped.
func WriteChart(w io.Writer, recs []runlog.Record) error {
	scored := make([]runlog.Record, 0, len(recs))
	for _, r := range recs {
		if r.MAE != nil {
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].StartedAt.Before(scored[j].StartedAt) })

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Validation MAE"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Run"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MAE"}),
	)

	xAxis := make([]string, len(scored))
	series := map[string][]opts.LineData{}
	var models []string
	for i, r := range scored {
		xAxis[i] = r.StartedAt.Local().Format("2006-01-02 15:04")
		data, ok := series[r.Model]
		if !ok {
			// "-" leaves a gap for runs of other models.
			data = make([]opts.LineData, len(scored))
			for j := range data {
				data[j] = opts.LineData{Value: "-"}
			}
			models = append(models, r.Model)
		}
		data[i] = opts.LineData{Value: *r.MAE, Name: r.ID}
		series[r.Model] = data
	}
	line.SetXAxis(xAxis)
	for _, m := range models {
		line.AddSeries(m, series[m])
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
