package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cjrh/lifter/internal/config"
	"github.com/cjrh/lifter/internal/fetch"
	"github.com/cjrh/lifter/internal/lifter"
	"github.com/cjrh/lifter/internal/platform"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.1-dev"

const (
	defaultConfig = "lifter.ini"
	eventBuffer   = 64
)

func main() {
	// A missing .env is fine; real environment variables take precedence.
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, platform.NewDetector()))
}

// stringSlice collects a repeatable flag.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	configPath string
	workers    int
	outputDir  string
	sections   stringSlice
	verbose    bool
	jsonLogs   bool
	version    bool
}

// parseOptions reads flags, falling back to LIFTER_* environment variables.
func parseOptions(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	defaultWorkers := lifter.DefaultWorkers
	if v := os.Getenv("LIFTER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("LIFTER_WORKERS must be a positive integer, got %q", v)
		}
		defaultWorkers = n
	}

	fs := flag.NewFlagSet("lifter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", envOr("LIFTER_CONFIG", defaultConfig), "path to the ini file")
	fs.IntVar(&opts.workers, "workers", defaultWorkers, "number of sections checked at once")
	fs.StringVar(&opts.outputDir, "dir", envOr("LIFTER_DIR", "."), "directory relative desired_filename values resolve against")
	fs.Var(&opts.sections, "section", "only check this section (repeatable)")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.BoolVar(&opts.jsonLogs, "json", false, "log as JSON")
	fs.BoolVar(&opts.version, "version", false, "print version")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: lifter [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Checks release pages for newer versions of the binaries listed in the")
		fmt.Fprintln(stderr, "config file, downloads them and records the installed version.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.workers < 1 {
		return nil, fmt.Errorf("-workers must be at least 1")
	}
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(w io.Writer, opts *options) *slog.Logger {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.jsonLogs {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// run is main without the process exit. detector supplies the {os}, {arch}
// and related substitution values.
func run(args []string, stdout, stderr io.Writer, detector platform.Detector) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.version {
		fmt.Fprintf(stdout, "lifter %s\n", Version)
		return 0
	}

	logger := newLogger(stderr, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := config.LoadStore(opts.configPath, config.WithStoreLogger(logger))
	if err != nil {
		logger.Error("failed to load config", "path", opts.configPath, "error", fmt.Sprintf("%+v", err))
		return 1
	}

	info, err := detector.Detect(ctx)
	if err != nil {
		logger.Warn("platform detection failed", "error", err)
		info = &platform.Info{}
	}
	logger.Debug("detected platform", "os", info.OS, "arch", info.Arch, "platform", info.Platform, "version", info.Version)

	fetcher, err := fetch.New(fetch.Config{Logger: logger})
	if err != nil {
		logger.Error("failed to create fetcher", "error", err)
		return 1
	}

	sink := lifter.NewChannelSink(eventBuffer)
	runner := lifter.New(store, fetcher,
		lifter.WithWorkers(opts.workers),
		lifter.WithOutputDir(opts.outputDir),
		lifter.WithSink(sink),
		lifter.WithLogger(logger),
		lifter.WithBuiltins(info.Vars()),
	)

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		newPrinter(stdout).consume(sink.Events())
	}()

	results := runner.Run(ctx, opts.sections)
	sink.Close()
	<-printed

	printSummary(stdout, results)
	return 0
}
