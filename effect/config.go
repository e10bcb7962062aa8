package effect

import (
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator produces identifiers for evaluation runs.
// Implemented by UUIDv7Generator (default) and fixed generators in tests.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures a single Evaluate, Report or Verify call.
type Option func(*config)

type config struct {
	comparator Comparator
	asserter   Asserter
	logger     *slog.Logger
	recorder   Recorder
	actionName string
	runIDs     RunIDGenerator
}

func newConfig(opts []Option) *config {
	c := &config{
		logger: slog.Default(),
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithComparator sets the run-level comparator. It applies to every check whose
// expectation has no comparator of its own. Nil falls back to the process
// default.
func WithComparator(c Comparator) Option {
	return func(cfg *config) {
		cfg.comparator = c
	}
}

// WithAsserter makes the run-level comparator a strict comparison backed by a.
// WithComparator takes precedence when both are given. Permissive also
// compares with a; Strict and Normalized named explicitly keep their own
// equality.
func WithAsserter(a Asserter) Option {
	return func(cfg *config) {
		cfg.asserter = a
	}
}

// runComparator returns the run-level comparator, or nil.
func (c *config) runComparator() Comparator {
	if c.comparator != nil {
		return c.comparator
	}
	if c.asserter != nil {
		return NewStrict(c.asserter)
	}
	return nil
}

// WithLogger sets the logger for emission and reporting diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithRecorder makes Verify hand every completed run to r.
func WithRecorder(r Recorder) Option {
	return func(cfg *config) {
		cfg.recorder = r
	}
}

// WithActionName names the action in errors, logs and journal records.
// Defaults to the action's function symbol.
func WithActionName(name string) Option {
	return func(cfg *config) {
		cfg.actionName = name
	}
}

// WithRunIDGenerator replaces the UUIDv7 run ID generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(cfg *config) {
		if g != nil {
			cfg.runIDs = g
		}
	}
}

// actionSymbols caches function symbol lookups by entry PC.
var actionSymbols sync.Map

// nameOf returns the configured name, or the short symbol of action.
func (c *config) nameOf(action Action) string {
	if c.actionName != "" {
		return c.actionName
	}
	if action == nil {
		return "<nil>"
	}
	pc := reflect.ValueOf(action).Pointer()
	if v, ok := actionSymbols.Load(pc); ok {
		return v.(string)
	}
	name := "<unknown>"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	actionSymbols.Store(pc, name)
	return name
}
