package api

// Case is a completed pipeline run as stored and served by the gateway.
// One run produces exactly one Case; the engine itself keeps no state
// between runs.
type Case struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`

	// Escalated mirrors the final record's escalation.required field
	// so stored cases can be filtered without unpacking the record.
	Escalated bool `json:"escalated"`

	// Record is the full final case record, audit log included.
	Record Record `json:"record"`
}
