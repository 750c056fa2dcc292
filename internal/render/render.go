// Package render presents cluster groups as text, an HTML chart or a PNG chart.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/wcharczuk/go-chart/v2"
)

func label(i int) string {
	return "Cluster " + strconv.Itoa(i+1)
}

// Text writes one "Cluster N (size)" heading per group followed by its names.
func Text(w io.Writer, groups [][]string) error {
	bw := bufio.NewWriter(w)
	for i, names := range groups {
		fmt.Fprintf(bw, "%s (%d)\n", label(i), len(names))
		for _, name := range names {
			fmt.Fprintf(bw, "  - %s\n", name)
		}
	}
	return bw.Flush()
}

// HTML writes a standalone page with a bar chart of the group sizes.
func HTML(w io.Writer, groups [][]string) error {
	labels := make([]string, len(groups))
	bars := make([]opts.BarData, len(groups))
	for i, names := range groups {
		labels[i] = label(i)
		bars[i] = opts.BarData{Name: labels[i], Value: len(names)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "K-means clustering",
			Subtitle: fmt.Sprintf("%d clusters", len(groups)),
		}),
	)
	bar.SetXAxis(labels).AddSeries("Documents", bars)
	return bar.Render(w)
}

// PNG writes a bar chart of the group sizes.
func PNG(w io.Writer, groups [][]string) error {
	if len(groups) == 0 {
		return fmt.Errorf("no clusters to draw")
	}

	width := 1024
	barWidth := max(8, min(60, width/(2*len(groups))))
	top := 0
	bars := make([]chart.Value, len(groups))
	for i, names := range groups {
		bars[i] = chart.Value{Label: label(i), Value: float64(len(names))}
		top = max(top, len(names))
	}

	graph := chart.BarChart{
		Title:  "K-means clustering",
		Width:  width,
		Height: 512,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: barWidth,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top + 1)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}
