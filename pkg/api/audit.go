package api

// AuditEntry is the immutable log of one merge operation against the
// record. Entries are append-only; their order is the temporal order of
// application. Server is empty for synthetic merges that never went
// through the dispatcher.
type AuditEntry struct {
	Stage   string         `json:"stage"`
	Ability string         `json:"ability"`
	Server  string         `json:"server,omitempty"`
	Updates map[string]any `json:"updates"`
	Before  map[string]any `json:"before"`
	After   map[string]any `json:"after"`
}
