package api

// Record is the evolving case document carried through one pipeline run.
// Fields are added or overwritten at the top level only: a field update
// replaces the entire previous value for that key, there is no deep merge.
type Record map[string]any

// Clone returns a shallow copy of the record. Stage handlers operate on
// their own snapshot so no handler mutates another stage's view.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GetMap returns the named field as a map, or an empty map when the field
// is absent or has a different shape. Missing data is not an error at the
// engine level; handlers treat it as empty and proceed.
func (r Record) GetMap(key string) map[string]any {
	if m, ok := r[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// GetString returns the named field as a string, or "" when absent.
func (r Record) GetString(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// GetSlice returns the named field as a slice, or nil when absent.
func (r Record) GetSlice(key string) []any {
	if s, ok := r[key].([]any); ok {
		return s
	}
	return nil
}

// AuditLog returns the record's audit trail. The trail lives inside the
// record under the "audit_log" key so it travels with the document.
func (r Record) AuditLog() []AuditEntry {
	if log, ok := r["audit_log"].([]AuditEntry); ok {
		return log
	}
	return nil
}
