package api

import "testing"

func TestDecisionFromRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Decision
	}{
		{
			name: "int score",
			rec:  Record{"decision": map[string]any{"solution": "inform_and_wait", "score": 93}},
			want: Decision{Solution: "inform_and_wait", Score: 93},
		},
		{
			name: "float score from JSON decoding",
			rec:  Record{"decision": map[string]any{"solution": "expedite_or_replace", "score": float64(85)}},
			want: Decision{Solution: "expedite_or_replace", Score: 85},
		},
		{
			name: "missing decision defaults to score zero",
			rec:  Record{},
			want: Decision{},
		},
		{
			name: "malformed decision",
			rec:  Record{"decision": "oops"},
			want: Decision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecisionFromRecord(tt.rec)
			if got != tt.want {
				t.Errorf("DecisionFromRecord = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEscalationFromRecord(t *testing.T) {
	rec := Record{"escalation": map[string]any{"required": true, "reason": "Low confidence in solution"}}
	got := EscalationFromRecord(rec)
	if !got.Required {
		t.Error("Required = false, want true")
	}
	if got.Reason != "Low confidence in solution" {
		t.Errorf("Reason = %q", got.Reason)
	}

	empty := EscalationFromRecord(Record{})
	if empty.Required || empty.Reason != "" {
		t.Errorf("empty record yielded %+v, want zero value", empty)
	}
}
