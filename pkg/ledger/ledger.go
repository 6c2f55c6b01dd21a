// Package ledger applies ability results to the case record and keeps
// the audit trail. Every merge — including empty ones — appends exactly
// one audit entry recording the stage, ability, resolved server, and the
// before/after values of the touched fields. The trail lives inside the
// record itself, under "audit_log", so it travels with the document.
package ledger

import "github.com/caseflow-dev/caseflow/pkg/api"

// Apply merges updates into the record as top-level field overwrites and
// appends one audit entry. Before and after capture the record's values
// for exactly the keys present in updates; keys absent from the record
// read as nil. An empty updates map still produces an entry, with empty
// before/after and no record change.
//
// Server is the identifier the invocation was dispatched to, or "" for
// synthetic merges that never went through the dispatcher.
//
// The record is mutated in place and returned for call chaining.
func Apply(rec api.Record, stage, ability string, updates map[string]any, server string) api.Record {
	before := snapshot(rec, updates)
	for k, v := range updates {
		rec[k] = v
	}
	after := snapshot(rec, updates)

	entry := api.AuditEntry{
		Stage:   stage,
		Ability: ability,
		Server:  server,
		Updates: updates,
		Before:  before,
		After:   after,
	}
	rec["audit_log"] = append(rec.AuditLog(), entry)

	return rec
}

// snapshot captures the record's current values for the update keys.
func snapshot(rec api.Record, updates map[string]any) map[string]any {
	out := make(map[string]any, len(updates))
	for k := range updates {
		out[k] = rec[k]
	}
	return out
}
