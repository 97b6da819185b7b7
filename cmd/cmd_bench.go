// cmd_bench.go - Bench Command: kompletter Harness-Lauf
// Hauptfunktionen: BenchHandler, saveRun
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/larch-ml/larch/bench"
	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
	"github.com/larch-ml/larch/store"
	"github.com/larch-ml/larch/version"
)

// BenchHandler - Fuehrt den Benchmark-Lauf ueber den gefilterten Katalog aus
func BenchHandler(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	filter, _ := flags.GetStringArray("filter")
	exclude, _ := flags.GetStringArray("exclude")
	device, _ := flags.GetString("device")
	test, _ := flags.GetString("test")
	warmup, _ := flags.GetInt("warmup")
	repeat, _ := flags.GetInt("repeat")
	inner, _ := flags.GetInt("inner-loop-repeat")
	fuser, _ := flags.GetString("fuser")
	modelsDir, _ := flags.GetString("models-dir")
	outputDir, _ := flags.GetString("output-dir")
	dump, _ := flags.GetBool("dump-counters")
	noops, _ := flags.GetBool("run-tracing-execute-noops")
	save, _ := flags.GetBool("save")

	if warmup < 0 {
		return fmt.Errorf("--warmup must not be negative, got %d", warmup)
	}
	if repeat < 2 {
		return fmt.Errorf("--repeat must be at least 2, got %d", repeat)
	}
	if inner < 1 {
		return fmt.Errorf("--inner-loop-repeat must be at least 1, got %d", inner)
	}

	rc, err := bench.NewRunContext(bench.Options{
		Filter:          filter,
		Exclude:         exclude,
		Device:          ml.Device(device),
		Test:            model.Mode(test),
		Warmup:          warmup,
		Repeat:          repeat,
		InnerLoopRepeat: inner,
		Fuser:           ml.Fuser(fuser),
		ModelsDir:       modelsDir,
		OutputDir:       outputDir,
		DumpCounters:    dump || envconfig.DumpCounters(),
		TracingNoops:    noops || envconfig.NoopExecute(),
		Save:            save,
	})
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := rc.Run(cmd.Context()); err != nil {
		return err
	}

	return saveRun(rc)
}

// saveRun - Schreibt die Ergebnis-Zeilen des Laufs in die History
func saveRun(rc *bench.RunContext) error {
	if !rc.Opts.Save || envconfig.NoHistory() {
		return nil
	}

	rows := rc.Rows()
	if len(rows) == 0 {
		slog.Debug("run produced no result rows, skipping history entry")
		return nil
	}

	s := &store.Store{}
	defer s.Close()

	run := store.Run{
		ID:        rc.ID.String(),
		Started:   rc.Started,
		Device:    string(rc.Opts.Device),
		Test:      string(rc.Opts.Test),
		Fuser:     string(rc.Opts.Fuser),
		Warmup:    rc.Opts.Warmup,
		Repeat:    rc.Opts.Repeat,
		InnerLoop: rc.Opts.InnerLoopRepeat,
		Version:   version.Version,
	}

	srows := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		srows = append(srows, store.Row{
			Name:       r.Name,
			Device:     string(r.Device),
			Experiment: r.Experiment,
			Metric:     r.Metric,
			Value:      r.Value,
			PValue:     r.PValue,
		})
	}

	if err := s.SaveRun(run, srows); err != nil {
		return fmt.Errorf("saving run history: %w", err)
	}

	fmt.Printf("saved run %s (%d rows)\n", shortID(run.ID), len(srows))
	return nil
}

// newBenchCmd - Erstellt den bench Command
func newBenchCmd() *cobra.Command {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the benchmark harness",
		Args:  cobra.ExactArgs(0),
		RunE:  BenchHandler,
	}

	benchCmd.Flags().StringArrayP("filter", "k", nil, "Run only models matching this pattern (repeatable)")
	benchCmd.Flags().StringArrayP("exclude", "x", nil, "Skip models matching this pattern (repeatable)")
	benchCmd.Flags().StringP("device", "d", "cuda", "Device to run on (cpu or cuda)")
	benchCmd.Flags().String("test", "eval", "Mode to benchmark (eval or train)")
	benchCmd.Flags().Int("warmup", 4, "Warmup iterations before measuring")
	benchCmd.Flags().IntP("repeat", "n", 6, "Measured iterations per experiment")
	benchCmd.Flags().Int("inner-loop-repeat", 10, "Steps per iteration in the amortized experiment")
	benchCmd.Flags().String("fuser", "", "Fusion profile: noopt, fuser0, fuser1 or fuser2 (default per device)")
	benchCmd.Flags().String("models-dir", "", "Directory with serialized external catalog programs")
	benchCmd.Flags().String("output-dir", "", "Directory for CSV result files (default \".\")")
	benchCmd.Flags().Bool("dump-counters", false, "Dump all backend counters after each experiment")
	benchCmd.Flags().Bool("run-tracing-execute-noops", false, "Trace without compiling or executing, then exit")
	benchCmd.Flags().Bool("save", false, "Persist the run into the history database")

	return benchCmd
}
