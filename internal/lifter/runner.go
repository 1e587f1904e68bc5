// Package lifter runs the check-download-extract pipeline for each
// configured section.
package lifter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cjrh/lifter/internal/archive"
	"github.com/cjrh/lifter/internal/config"
	"github.com/cjrh/lifter/internal/gate"
	"github.com/cjrh/lifter/internal/hit"
	"github.com/cjrh/lifter/internal/verify"
)

// DefaultWorkers is the default number of sections processed at once.
const DefaultWorkers = 4

// Store is the version-record store.
type Store interface {
	Sections() []string
	Section(name string) (map[string]string, bool)
	Templates() config.Templates
	SetVersion(ctx context.Context, section, version string) error
}

// Fetcher retrieves pages and artifacts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url string, progress func(float64)) ([]byte, error)
}

// Verifier checks a downloaded artifact before it is unpacked.
type Verifier interface {
	Verify(ctx context.Context, downloadURL string, data []byte, spec *config.EntrySpec) error
}

// Result is the end state of one section.
type Result struct {
	Section string
	Outcome Outcome
	Version string // found version, when one was found
	Err     error
}

// Runner processes sections.
type Runner struct {
	store     Store
	fetcher   Fetcher
	verifier  Verifier
	extractor *archive.Extractor
	sink      Sink
	logger    config.Logger
	builtins  map[string]string
	workers   int
	outputDir string
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets how many sections run at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithOutputDir sets the directory relative desired filenames resolve
// against. Default: the working directory.
func WithOutputDir(dir string) Option {
	return func(r *Runner) {
		r.outputDir = dir
	}
}

// WithSink sets where progress events go.
func WithSink(s Sink) Option {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l config.Logger) Option {
	return func(r *Runner) {
		r.logger = config.OrNop(l)
	}
}

// WithVerifier replaces the default sidecar-file verifier.
func WithVerifier(v Verifier) Option {
	return func(r *Runner) {
		r.verifier = v
	}
}

// WithBuiltins sets lowest-precedence substitution values, such as
// platform.Info.Vars.
func WithBuiltins(vars map[string]string) Option {
	return func(r *Runner) {
		r.builtins = vars
	}
}

// New creates a Runner.
func New(store Store, fetcher Fetcher, opts ...Option) *Runner {
	r := &Runner{
		store:     store,
		fetcher:   fetcher,
		sink:      discardSink{},
		logger:    config.NopLogger(),
		workers:   DefaultWorkers,
		outputDir: ".",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.verifier == nil {
		r.verifier = verify.New(fetcher, r.logger)
	}
	r.extractor = archive.NewExtractor(r.logger)
	return r
}

// Run processes sections concurrently, or every section in the store when
// sections is empty. A failing section is logged and recorded in its Result
// without affecting the others. NoMoreWork is emitted once all are done.
func (r *Runner) Run(ctx context.Context, sections []string) []Result {
	if len(sections) == 0 {
		sections = r.store.Sections()
	}

	results := make([]Result, len(sections))
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, name := range sections {
		i, name := i, name
		g.Go(func() error {
			res := r.runSection(ctx, name)
			if res.Err != nil {
				r.logger.Error("section failed", "section", name, "error", fmt.Sprintf("%+v", res.Err))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	r.sink.Emit(Event{Kind: NoMoreWork})
	return results
}

// RunSection takes one section from its config through to an installed
// artifact and updated version record. Errors carry a stack trace and the
// stage that failed; print them with %+v.
func (r *Runner) RunSection(ctx context.Context, name string) (Outcome, error) {
	res := r.runSection(ctx, name)
	return res.Outcome, res.Err
}

func (r *Runner) runSection(ctx context.Context, name string) Result {
	s := &sectionRun{
		Runner: r,
		name:   name,
		log:    withFields(r.logger, "section", name, "run", uuid.NewString()),
	}

	r.sink.Emit(Event{Kind: CheckStart, Section: name})
	defer r.sink.Emit(Event{Kind: CheckEnd, Section: name})

	outcome, err := s.run(ctx)
	if err != nil {
		err = pkgerrors.Wrapf(err, "section %s: %s", name, s.state)
	}
	s.log.Debug("section finished", "outcome", outcome, "state", s.state)
	return Result{Section: name, Outcome: outcome, Version: s.found, Err: err}
}

// sectionRun carries one section through the pipeline.
type sectionRun struct {
	*Runner
	name  string
	log   config.Logger
	state State
	found string
}

func (s *sectionRun) enter(state State) {
	s.state = state
	s.log.Debug("entering state", "state", state)
}

func (s *sectionRun) run(ctx context.Context) (Outcome, error) {
	s.enter(StateResolving)
	fields, ok := s.store.Section(s.name)
	if !ok {
		return OutcomeSkipped, pkgerrors.WithStack(&config.ConfigError{Section: s.name, Err: config.ErrUnknownSection})
	}
	resolver := config.NewResolver(config.WithBuiltins(s.builtins), config.WithLogger(s.log))
	spec, err := resolver.Resolve(s.name, fields, s.store.Templates())
	if err != nil {
		return OutcomeSkipped, err
	}
	if spec == nil {
		s.enter(StateDone)
		return OutcomeSkipped, nil
	}

	s.enter(StateFetching)
	s.log.Debug("processing", "page_url", spec.PageURL)
	body, err := s.fetcher.Fetch(ctx, spec.PageURL)
	if err != nil {
		return OutcomeSkipped, err
	}

	s.enter(StateExtractingHit)
	extractor, err := hit.For(spec.FetchMethod, s.log)
	if err != nil {
		return OutcomeSkipped, err
	}
	found, err := extractor.Extract(spec.PageURL, body, spec)
	if err != nil {
		return OutcomeSkipped, err
	}
	if found == nil {
		s.enter(StateDone)
		return OutcomeNoMatch, nil
	}
	s.found = found.Version

	s.enter(StateGating)
	target := s.targetPath(spec.DesiredFilename)
	if !gate.ShouldUpdate(*found, spec.RecordedVersion, gate.TargetExists(target)) {
		s.log.Info("found version is not newer, skipping", "version", found.Version)
		s.sink.Emit(Event{Kind: UpToDate, Section: s.name, Version: found.Version})
		s.enter(StateDone)
		return OutcomeUpToDate, nil
	}
	s.sink.Emit(Event{Kind: NeedsUpdate, Section: s.name, Current: spec.RecordedVersion, Latest: found.Version})

	s.enter(StateDownloading)
	kind := archive.DetectKind(found.DownloadURL)
	if kind == archive.Unknown {
		s.log.Warn("failed to match known file extensions, skipping", "download_url", found.DownloadURL)
		s.enter(StateDone)
		return OutcomeUnsupported, nil
	}
	s.log.Info("downloading version", "version", found.Version, "url", found.DownloadURL, "kind", kind)
	data, err := s.fetcher.Download(ctx, found.DownloadURL, func(p float64) {
		s.sink.Emit(Event{Kind: DownloadProgress, Section: s.name, Progress: p})
	})
	if err != nil {
		return OutcomeSkipped, err
	}

	if spec.WantsVerification() {
		s.enter(StateVerifying)
		if err := s.verifier.Verify(ctx, found.DownloadURL, data, spec); err != nil {
			return OutcomeSkipped, err
		}
	}

	s.enter(StateUnpacking)
	s.log.Info("saving artifact", "url", found.DownloadURL, "output", target)
	err = s.extractor.Extract(data, kind, spec.ArchiveMemberPattern, target)
	if errors.Is(err, archive.ErrMemberNotFound) {
		s.log.Warn("failed to find file inside archive", "pattern", spec.ArchiveMemberPattern, "download_url", found.DownloadURL)
		s.enter(StateDone)
		return OutcomeMemberMissing, nil
	}
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Section == "" {
		cfgErr.Section = s.name
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	s.enter(StateFinalizing)
	if strings.HasSuffix(found.DownloadURL, ".exe") {
		s.log.Debug("windows executable, leaving mode alone", "output", target)
	} else if err := archive.MakeExecutable(target); err != nil {
		return OutcomeSkipped, err
	}
	if err := s.store.SetVersion(ctx, s.name, found.Version); err != nil {
		return OutcomeSkipped, err
	}
	s.log.Info("downloaded new version", "version", found.Version)
	s.sink.Emit(Event{Kind: Updated, Section: s.name, Version: found.Version})

	s.enter(StateDone)
	return OutcomeUpdated, nil
}

func (s *sectionRun) targetPath(desired string) string {
	if filepath.IsAbs(desired) || s.outputDir == "" {
		return desired
	}
	return filepath.Join(s.outputDir, desired)
}
