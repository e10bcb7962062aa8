package effect

import "context"

// Run is a completed evaluation as handed to a Recorder.
type Run struct {
	ID     string
	Action string
	Checks []Check
	Result any

	// Err is the run's failure, or nil if every check passed.
	Err error
}

// Passed reports whether the run succeeded.
func (r Run) Passed() bool { return r.Err == nil }

// Recorder persists runs, for example to a journal that can be inspected and
// replayed later.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, run Run) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, run Run) error {
	return f(ctx, run)
}
