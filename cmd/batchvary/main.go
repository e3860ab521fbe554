// Command batchvary writes variations of images without opening the editor.
//
// Usage: batchvary [options] <image>...
//
// Each -vary flag adds one "type=list" group, for example
//
//	batchvary -vary rotation=90,180 -vary filter=sepia,blur photo.jpg
//
// With no -vary flags the default set is produced.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"layercanvas/internal/aifx"
	"layercanvas/internal/batch"
	"layercanvas/internal/config"
	"layercanvas/internal/export"
)

// specList collects repeated -vary flags.
type specList []string

func (l *specList) String() string { return strings.Join(*l, ";") }

func (l *specList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	flagConfig  = flag.String("config", "", "Configuration file (default "+config.DefaultPath+")")
	flagOut     = flag.String("out", "", "Output directory (default from config)")
	flagPattern = flag.String("pattern", "", "File name pattern (default from config)")
	flagFormat  = flag.String("format", "", "Output format: png, jpg, bmp, tiff or gif")
	flagAI      = flag.Bool("ai", false, "Also produce every AI-style effect")
	flagVerbose = flag.Bool("v", false, "Verbose output")
	flagList    = flag.Bool("list", false, "Print the variations that would be produced and exit")
	flagVary    specList
)

func main() {
	flag.Var(&flagVary, "vary", "Variation group type=list, may be repeated")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image>...\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	vars, err := variations(flagVary, *flagAI)
	if err != nil {
		logger.Error("bad variations", "err", err)
		os.Exit(2)
	}
	if *flagList {
		fmt.Print(batch.FormatSpec(vars))
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	p, err := processor(cfg, logger)
	if err != nil {
		logger.Error("setup", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := false
	for _, source := range flag.Args() {
		report, err := p.RunFile(ctx, source, vars)
		if err != nil {
			logger.Error("variations stopped", "source", source, "err", err)
			failed = true
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		logger.Info("done", "source", source, "written", report.Succeeded(), "failed", len(report.Failed()))
		if err := report.Err(); err != nil {
			logger.Warn("some variations failed", "source", source, "err", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// variations parses the -vary groups, falling back to the default set.
func variations(groups []string, withAI bool) ([]batch.Variation, error) {
	var vars []batch.Variation
	if len(groups) == 0 {
		vars = batch.Defaults()
	} else {
		var err error
		vars, err = batch.ParseSpec(strings.Join(groups, "\n"))
		if err != nil {
			return nil, err
		}
	}
	if withAI {
		for _, e := range aifx.Effects() {
			vars = append(vars, batch.Variation{Type: batch.Custom, Value: e.Name()})
		}
	}
	return vars, nil
}

// processor builds a batch processor from the config and flags.
func processor(cfg *config.Config, logger *slog.Logger) (*batch.Processor, error) {
	dir := cfg.Batch.OutputDir
	if *flagOut != "" {
		dir = *flagOut
	}
	pattern := cfg.Batch.Pattern
	if *flagPattern != "" {
		pattern = *flagPattern
	}
	format := cfg.BatchFormat()
	if *flagFormat != "" {
		f, err := export.ParseFormat(*flagFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	p := batch.NewProcessor(config.Expand(dir))
	p.Namer = batch.Namer{Pattern: pattern, Format: format}
	p.Options = cfg.ExportOptions()
	p.Logger = logger
	aifx.RegisterAll(p)
	return p, nil
}
