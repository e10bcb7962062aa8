// Package journal persists effect runs to SQLite so they can be inspected
// and replayed against updated expectations later.
//
// A Journal implements effect.Recorder:
//
//	j, err := journal.Open("runs.db")
//	...
//	defer j.Close()
//	_, err = effect.Verify(ctx, action, expectations, payload, collab,
//	    effect.WithRecorder(j))
//
// Payloads, options and results are stored as canonical JSON, and every
// received trigger is fingerprinted, so identical effects are identical rows
// regardless of the Go types that produced them. Values that have no JSON form
// (functions, channels, some matchers) are stored as their %v rendering.
package journal
