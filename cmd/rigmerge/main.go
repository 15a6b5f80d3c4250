// rigmerge combines two rig log files into one time-sorted store.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/scigolib/rigmerge"
	"github.com/scigolib/rigmerge/internal/logging"
)

func main() {
	out := flag.String("out", "combined.h5", "output store path")
	manifest := flag.String("config", "", "YAML manifest path")
	parquetOut := flag.String("parquet", "", "also export the merged dataset to this Parquet file")
	timeSignal := flag.String("time-signal", "", "sort signal name (overrides manifest)")
	verbose := flag.Bool("v", false, "debug logging")
	jsonLog := flag.Bool("json", false, "JSON log output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.Init(level, *jsonLog)

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: rigmerge [flags] <first.h5> <second.h5>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts := rigmerge.DefaultOptions()
	if *manifest != "" {
		var err error
		opts, err = rigmerge.LoadOptions(*manifest)
		if err != nil {
			logging.Error("manifest load failed", "error", err)
			os.Exit(1)
		}
	}
	if *timeSignal != "" {
		opts.TimeSignal = *timeSignal
	}

	ds, diag, err := rigmerge.Merge(args[0], args[1], opts)
	if err != nil {
		logging.Error("merge failed", "error", err)
		os.Exit(1)
	}
	for _, w := range diag.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if err := rigmerge.WriteStore(*out, ds, opts); err != nil {
		logging.Error("write failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d rows, %d signals\n", *out, ds.Samples.Rows, len(ds.Signals))

	if *parquetOut != "" {
		if err := rigmerge.ExportParquet(*parquetOut, ds); err != nil {
			logging.Error("parquet export failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *parquetOut)
	}
}
