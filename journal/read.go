package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/internal/canonical"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is a stored run.
type RunRecord struct {
	Seq         int64            `json:"seq"`
	ID          string           `json:"id"`
	Action      string           `json:"action"`
	Passed      bool             `json:"passed"`
	ErrorCode   effect.ErrorCode `json:"error_code,omitempty"`
	Error       string           `json:"error,omitempty"`
	Result      string           `json:"result"`
	Fingerprint string           `json:"fingerprint"`
	RecordedAt  string           `json:"recorded_at"`

	// Checks is populated by ReadRun only.
	Checks []CheckRecord `json:"checks,omitempty"`
}

// CheckRecord is a stored check. Payload and option columns hold canonical
// JSON; an empty string means the value was not present.
type CheckRecord struct {
	Index           int         `json:"index"`
	ReceivedKind    effect.Kind `json:"received_kind"`
	ReceivedName    string      `json:"received_name"`
	ReceivedPayload string      `json:"received_payload"`
	ReceivedOptions string      `json:"received_options,omitempty"`

	ExpectedKind       effect.Kind `json:"expected_kind"`
	ExpectedName       string      `json:"expected_name"`
	ExpectedHasPayload bool        `json:"expected_has_payload"`
	ExpectedPayload    string      `json:"expected_payload,omitempty"`
	ExpectedOptions    string      `json:"expected_options,omitempty"`

	Fingerprint string `json:"fingerprint"`
}

// Received rebuilds the received trigger. Numbers come back as int64 or
// float64, so compare replays with effect.Normalized.
func (c CheckRecord) Received() (effect.Trigger, error) {
	payload, err := decodeValue(c.ReceivedPayload)
	if err != nil {
		return effect.Trigger{}, fmt.Errorf("check %d: payload: %w", c.Index, err)
	}
	options, err := decodeValue(c.ReceivedOptions)
	if err != nil {
		return effect.Trigger{}, fmt.Errorf("check %d: options: %w", c.Index, err)
	}
	return effect.FromFields(c.ReceivedKind, c.ReceivedName, payload, options)
}

// Expected rebuilds the trigger the check was paired with.
func (c CheckRecord) Expected() (effect.Trigger, error) {
	var payload any = effect.Unset
	if c.ExpectedHasPayload {
		p, err := decodeValue(c.ExpectedPayload)
		if err != nil {
			return effect.Trigger{}, fmt.Errorf("check %d: expected payload: %w", c.Index, err)
		}
		payload = p
	}
	options, err := decodeValue(c.ExpectedOptions)
	if err != nil {
		return effect.Trigger{}, fmt.Errorf("check %d: expected options: %w", c.Index, err)
	}
	return effect.FromFields(c.ExpectedKind, c.ExpectedName, payload, options)
}

// Triggers rebuilds the received triggers of r in emission order.
func (r *RunRecord) Triggers() ([]effect.Trigger, error) {
	out := make([]effect.Trigger, len(r.Checks))
	for i, c := range r.Checks {
		t, err := c.Received()
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		out[i] = t
	}
	return out, nil
}

// ResultValue decodes the stored result.
func (r *RunRecord) ResultValue() (any, error) {
	return decodeValue(r.Result)
}

func decodeValue(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	return canonical.Unmarshal([]byte(s))
}

// ListRuns returns runs in recording order, without checks. An empty action
// lists every run. Returns an empty slice (not nil) when there are none.
func (j *Journal) ListRuns(ctx context.Context, action string) ([]RunRecord, error) {
	query := `
		SELECT seq, id, action, passed, error_code, error, result, fingerprint, recorded_at
		FROM runs
	`
	var args []any
	if action != "" {
		query += " WHERE action = ?"
		args = append(args, action)
	}
	query += " ORDER BY seq ASC"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run with its checks ordered by index.
// Returns ErrRunNotFound if no run has the given ID.
func (j *Journal) ReadRun(ctx context.Context, id string) (*RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT seq, id, action, passed, error_code, error, result, fingerprint, recorded_at
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	checks, err := j.readChecks(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Checks = checks
	return &r, nil
}

func (j *Journal) readChecks(ctx context.Context, runID string) ([]CheckRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT idx, received_kind, received_name, received_payload, received_options,
		       expected_kind, expected_name, expected_has_payload, expected_payload, expected_options,
		       fingerprint
		FROM checks
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	checks := []CheckRecord{}
	for rows.Next() {
		var (
			c                                                  CheckRecord
			receivedOptions, expectedPayload, expectedOptions sql.NullString
		)
		if err := rows.Scan(
			&c.Index, &c.ReceivedKind, &c.ReceivedName, &c.ReceivedPayload, &receivedOptions,
			&c.ExpectedKind, &c.ExpectedName, &c.ExpectedHasPayload, &expectedPayload, &expectedOptions,
			&c.Fingerprint,
		); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		c.ReceivedOptions = receivedOptions.String
		c.ExpectedPayload = expectedPayload.String
		c.ExpectedOptions = expectedOptions.String
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return checks, nil
}

// FindRunsWithTrigger returns the IDs of runs that received t, in recording
// order. t is matched on its received form: the payload counts as declared,
// nil if t has none.
func (j *Journal) FindRunsWithTrigger(ctx context.Context, t effect.Trigger) ([]string, error) {
	fp, err := triggerFingerprint(t)
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT r.id, r.seq
		FROM checks c
		JOIN runs r ON r.id = c.run_id
		WHERE c.fingerprint = ?
		ORDER BY r.seq ASC
	`, fp)
	if err != nil {
		return nil, fmt.Errorf("query checks by fingerprint: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var (
			id  string
			seq int64
		)
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r    RunRecord
		code string
	)
	err := s.Scan(&r.Seq, &r.ID, &r.Action, &r.Passed, &code, &r.Error, &r.Result, &r.Fingerprint, &r.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("scan run: %w", err)
	}
	r.ErrorCode = effect.ErrorCode(code)
	return r, nil
}

// Replay checks the triggers of a stored run against expectations with
// effect.Replay. The run's action name is used unless opts override it.
func (j *Journal) Replay(ctx context.Context, id string, expectations []effect.Expectation, opts ...effect.Option) error {
	r, err := j.ReadRun(ctx, id)
	if err != nil {
		return err
	}
	triggers, err := r.Triggers()
	if err != nil {
		return err
	}
	all := append([]effect.Option{effect.WithActionName(r.Action)}, opts...)
	return effect.Replay(triggers, expectations, all...)
}
