package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	flag "github.com/spf13/pflag"

	"github.com/riskibarqy/evidence-portal/internal/infrastructure/demofile"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

const (
	modeIdentity = "identity"
	modeStats    = "stats"
)

type options struct {
	file    string
	mode    string
	timeout time.Duration
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "Path of the .dem recording to inspect")
	flag.StringVar(&opts.mode, "mode", modeIdentity, "View to print: identity or stats")
	flag.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Upper bound for decoding the recording")
	flag.BoolVar(&opts.verbose, "verbose", false, "Log decoder progress to stderr")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "demo-inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	path := strings.TrimSpace(opts.file)
	if path == "" {
		return fmt.Errorf("--file must be specified")
	}
	if opts.timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}

	logger := logging.NewNop()
	if opts.verbose {
		logger = logging.NewConsole(logging.LevelDebug, stderr)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	extractor := usecase.NewMatchExtractionService(demofile.NewReader(opts.timeout, logger), logger)

	var view any
	switch strings.ToLower(strings.TrimSpace(opts.mode)) {
	case modeIdentity:
		view = extractor.ExtractIdentity(ctx, path)
	case modeStats:
		view = extractor.ExtractStatistics(ctx, path)
	default:
		return fmt.Errorf("unknown --mode %q: valid values are %s, %s", opts.mode, modeIdentity, modeStats)
	}

	out, err := sonic.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}
