// Command trace-report renders an offline HTML report for a recorded
// pointer trace: the raw vs stabilized trajectory and the per-second
// movement magnitude, for eyeballing filter behaviour before changing
// tuning.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/GrupoUS/steadyinput/internal/config"
	"github.com/GrupoUS/steadyinput/internal/input"
	"github.com/GrupoUS/steadyinput/internal/stabilize"
	"github.com/GrupoUS/steadyinput/internal/trace"
)

var (
	tracePath   = flag.String("trace", "", "Pointer trace file (JSONL)")
	outPath     = flag.String("out", "trace-report.html", "Output HTML file")
	sensitivity = flag.Int("sensitivity", config.DefaultSensitivity, "Stabilization sensitivity (1-10)")
	windowMs    = flag.Int64("window", config.DefaultWindowMs, "Sample window horizon (ms)")
)

func main() {
	flag.Parse()
	if *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	events, err := trace.ReadFile(*tracePath)
	if err != nil {
		log.Fatalf("failed to read trace: %v", err)
	}
	if len(events) == 0 {
		log.Fatalf("trace %s contains no events", *tracePath)
	}

	raw, stabilized := stabilizeSeries(events, *sensitivity, *windowMs)

	page := components.NewPage()
	page.PageTitle = "steadyinput trace report"
	page.AddCharts(
		trajectoryChart(raw, stabilized),
		movementChart(events),
	)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create report: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s (%d events, sensitivity %d)", *outPath, len(events), *sensitivity)
}

// stabilizeSeries runs the trace through the filter and returns the
// raw and stabilized positions for the move events.
func stabilizeSeries(events []trace.Event, sensitivity int, windowMs int64) (raw, stabilized []input.Point) {
	w := input.NewWindow(windowMs)
	for _, ev := range events {
		if ev.Press {
			continue
		}
		if !w.Append(input.Sample{X: ev.X, Y: ev.Y, TimestampMs: ev.TimestampMs}) {
			continue
		}
		raw = append(raw, input.Point{X: ev.X, Y: ev.Y})
		stabilized = append(stabilized, stabilize.Apply(w, sensitivity))
	}
	return raw, stabilized
}

func trajectoryChart(raw, stabilized []input.Point) *charts.Scatter {
	rawData := make([]opts.ScatterData, 0, len(raw))
	for _, p := range raw {
		rawData = append(rawData, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	stabData := make([]opts.ScatterData, 0, len(stabilized))
	for _, p := range stabilized {
		stabData = append(stabData, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pointer trajectory", Subtitle: "raw vs stabilized"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (px)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (px)"}),
	)
	scatter.AddSeries("raw", rawData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("stabilized", stabData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter
}

// movementChart plots total movement magnitude per second of the
// trace, a quick visual proxy for tremor intensity over time.
func movementChart(events []trace.Event) *charts.Line {
	type bucket struct {
		label    string
		distance float64
	}
	var buckets []bucket
	startMs := events[0].TimestampMs
	cur := -1
	var prev *trace.Event
	for i := range events {
		ev := events[i]
		if ev.Press {
			continue
		}
		sec := int((ev.TimestampMs - startMs) / 1000)
		for cur < sec {
			cur++
			buckets = append(buckets, bucket{label: fmt.Sprintf("%ds", cur)})
		}
		if prev != nil {
			buckets[len(buckets)-1].distance += math.Hypot(ev.X-prev.X, ev.Y-prev.Y)
		}
		prev = &events[i]
	}

	xs := make([]string, len(buckets))
	ys := make([]opts.LineData, len(buckets))
	for i, b := range buckets {
		xs[i] = b.label
		ys[i] = opts.LineData{Value: b.distance}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Movement per second", Subtitle: "px of path length"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "px"}),
	)
	line.SetXAxis(xs).AddSeries("movement", ys)
	return line
}
