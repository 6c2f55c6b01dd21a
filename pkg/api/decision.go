package api

// Decision is the outcome of the DECIDE stage's solution evaluation.
type Decision struct {
	Solution string `json:"solution"`
	Score    int    `json:"score"`
}

// Escalation records whether a case needs human handling, derived from
// the decision score against the configured threshold.
type Escalation struct {
	Required bool   `json:"required"`
	Reason   string `json:"reason,omitempty"`
}

// DecisionFromRecord reads the "decision" field of a record. A missing
// or malformed decision yields a zero Decision (score 0), which always
// falls below the threshold.
func DecisionFromRecord(r Record) Decision {
	m := r.GetMap("decision")
	d := Decision{}
	if s, ok := m["solution"].(string); ok {
		d.Solution = s
	}
	d.Score = intValue(m["score"])
	return d
}

// EscalationFromRecord reads the "escalation" field of a record.
func EscalationFromRecord(r Record) Escalation {
	m := r.GetMap("escalation")
	e := Escalation{}
	if b, ok := m["required"].(bool); ok {
		e.Required = b
	}
	if s, ok := m["reason"].(string); ok {
		e.Reason = s
	}
	return e
}

// intValue coerces numeric JSON/YAML representations to int. Decoded
// documents may carry int, int64, or float64 for the same field.
func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
