// rigplot renders two signals from a rig log as a line chart.
package main

import (
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/scigolib/rigmerge"
	"github.com/scigolib/rigmerge/internal/logging"
)

func main() {
	xName := flag.String("x", "Running Time", "x-axis signal name")
	yName := flag.String("y", "", "y-axis signal name (required)")
	out := flag.String("out", "plot.png", "output image path")
	width := flag.Float64("width", 8, "image width in inches")
	height := flag.Float64("height", 5, "image height in inches")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 || *yName == "" {
		fmt.Fprintln(os.Stderr, "Usage: rigplot -y <signal> [flags] <file.h5>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ext, diag, err := rigmerge.Extract(args[0], *xName, *yName)
	if err != nil {
		logging.Error("extract failed", "error", err)
		os.Exit(1)
	}
	for _, w := range diag.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if err := render(ext, *out, *width, *height); err != nil {
		logging.Error("render failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d points\n", *out, len(ext.X))
}

func render(ext *rigmerge.Extraction, path string, width, height float64) error {
	p := plot.New()
	p.Title.Text = ext.Title
	p.X.Label.Text = ext.XLabel
	p.Y.Label.Text = ext.YLabel

	pts := make(plotter.XYs, len(ext.X))
	for i := range ext.X {
		pts[i].X = ext.X[i]
		pts[i].Y = ext.Y[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	return p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path)
}
