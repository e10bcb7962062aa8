package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/effectcheck/effect"
	"github.com/roach88/effectcheck/internal/canonical"
)

// Record inserts a run and its checks in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: recording the same run ID
// twice keeps the first record.
func (j *Journal) Record(ctx context.Context, run effect.Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: run ID is required")
	}

	checkFingerprints := make([]string, len(run.Checks))
	for i, c := range run.Checks {
		fp, err := triggerFingerprint(c.Received)
		if err != nil {
			return fmt.Errorf("record run %s: check %d: %w", run.ID, i, err)
		}
		checkFingerprints[i] = fp
	}
	runFingerprint, err := canonical.Fingerprint(canonical.DomainRun, map[string]any{
		"action": run.Action,
		"checks": checkFingerprints,
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run %s: begin: %w", run.ID, err)
	}
	defer tx.Rollback()

	var errorText string
	if run.Err != nil {
		errorText = run.Err.Error()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, action, passed, error_code, error, result, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Action,
		run.Passed(),
		string(effect.CodeOf(run.Err)),
		errorText,
		encodeValue(run.Result),
		runFingerprint,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	for i, c := range run.Checks {
		expectedPayload, hasPayload := c.Expected.Payload()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO checks
			(run_id, idx, received_kind, received_name, received_payload, received_options,
			 expected_kind, expected_name, expected_has_payload, expected_payload, expected_options,
			 fingerprint)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			c.Index,
			string(c.Received.Kind()),
			c.Received.Name(),
			encodeValue(receivedPayload(c.Received)),
			encodeOptional(c.Received.Options(), c.Received.Options() != nil),
			string(c.Expected.Kind()),
			c.Expected.Name(),
			hasPayload,
			encodeOptional(expectedPayload, hasPayload),
			encodeOptional(c.Expected.Options(), c.Expected.Options() != nil),
			checkFingerprints[i],
		)
		if err != nil {
			return fmt.Errorf("record run %s: check %d: %w", run.ID, c.Index, err)
		}
	}

	return tx.Commit()
}

// encodeValue renders v as canonical JSON TEXT. Values with no JSON form are
// stored as the JSON string of their %v rendering.
func encodeValue(v any) string {
	data, err := canonical.Marshal(v)
	if err != nil {
		data, _ = canonical.Marshal(fmt.Sprintf("%v", v))
	}
	return string(data)
}

func encodeOptional(v any, present bool) sql.NullString {
	if !present {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeValue(v), Valid: true}
}

func receivedPayload(t effect.Trigger) any {
	p, _ := t.Payload()
	return p
}

// triggerFingerprint hashes the stored form of a received trigger, so the
// fingerprint can be recomputed from what is read back.
func triggerFingerprint(t effect.Trigger) (string, error) {
	doc := map[string]any{
		"kind":    string(t.Kind()),
		"name":    t.Name(),
		"payload": json.RawMessage(encodeValue(receivedPayload(t))),
	}
	if t.Options() != nil {
		doc["options"] = json.RawMessage(encodeValue(t.Options()))
	}
	return canonical.Fingerprint(canonical.DomainTrigger, doc)
}
