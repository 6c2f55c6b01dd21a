// Package common implements the COMMON server: the abilities that work
// purely on the case record itself, without reaching external systems —
// payload intake, text parsing, normalization, scoring, and response
// drafting.
package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/caseflow-dev/caseflow/pkg/abilities"
	"github.com/caseflow-dev/caseflow/pkg/api"
)

// Provider is the COMMON ability backend.
type Provider struct{}

// Ensure Provider implements abilities.Provider at compile time.
var _ abilities.Provider = (*Provider)(nil)

// New creates the COMMON provider.
func New() *Provider {
	return &Provider{}
}

// Name returns the server identifier "COMMON".
func (p *Provider) Name() string { return "COMMON" }

// Handlers returns the ability map of the COMMON server.
func (p *Provider) Handlers() map[string]abilities.Handler {
	return map[string]abilities.Handler{
		"accept_payload":         acceptPayload,
		"parse_request_text":     parseRequestText,
		"normalize_fields":       normalizeFields,
		"add_flags_calculations": addFlagsCalculations,
		"solution_evaluation":    solutionEvaluation,
		"response_generation":    responseGeneration,
		"store_answer":           storeAnswer,
		"store_data":             storeData,
		"update_payload":         updatePayload,
		"output_payload":         outputPayload,
	}
}

// acceptPayload seeds the ticket, customer, and query fields from the
// raw input payload. Absent keys read as empty.
func acceptPayload(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)

	priority := in.GetString("priority")
	if priority == "" {
		priority = "normal"
	}

	return map[string]any{
		"ticket": map[string]any{
			"id":       in["ticket_id"],
			"priority": priority,
			"status":   "new",
		},
		"customer": map[string]any{
			"name":  in["customer_name"],
			"email": in["email"],
		},
		"query": in.GetString("query"),
	}, nil
}

// parseRequestText derives an intent and token list from the query text.
func parseRequestText(_ context.Context, payload map[string]any) (map[string]any, error) {
	lower := strings.ToLower(api.Record(payload).GetString("query"))

	intent := "unknown"
	if strings.Contains(lower, "ship") || strings.Contains(lower, "deliver") {
		intent = "shipping_issue"
	}

	tokens := make([]any, 0)
	for _, tok := range strings.Fields(lower) {
		tokens = append(tokens, tok)
	}

	return map[string]any{
		"parsed": map[string]any{
			"intent": intent,
			"tokens": tokens,
		},
	}, nil
}

// normalizeFields lowercases the ticket priority. Note the returned
// ticket carries only the normalized fields; the merge overwrites the
// previous ticket value wholesale.
func normalizeFields(_ context.Context, payload map[string]any) (map[string]any, error) {
	ticket := api.Record(payload).GetMap("ticket")

	priority, _ := ticket["priority"].(string)
	if priority == "" {
		priority = "normal"
	}

	return map[string]any{
		"ticket": map[string]any{"priority": strings.ToLower(priority)},
	}, nil
}

// addFlagsCalculations derives the SLA risk flag from ticket priority
// and parsed intent.
func addFlagsCalculations(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)
	priority, _ := in.GetMap("ticket")["priority"].(string)
	if priority == "" {
		priority = "normal"
	}
	intent, _ := in.GetMap("parsed")["intent"].(string)

	slaRisk := "low"
	switch {
	case priority == "high":
		slaRisk = "high"
	case intent == "shipping_issue":
		slaRisk = "medium"
	}

	return map[string]any{
		"flags": map[string]any{"sla_risk": slaRisk},
	}, nil
}

// solutionEvaluation scores the best available solution. An in-transit
// order arriving within two days scores above the default threshold;
// anything else falls below it.
func solutionEvaluation(_ context.Context, payload map[string]any) (map[string]any, error) {
	order := api.Record(payload).GetMap("order")

	best := map[string]any{"solution": "expedite_or_replace", "score": 85}
	if len(order) > 0 && order["status"] == "in_transit" && etaDays(order) <= 2 {
		best = map[string]any{"solution": "inform_and_wait", "score": 93}
	}

	return map[string]any{"decision": best}, nil
}

// etaDays reads the order's eta_days field, defaulting high so an order
// with no ETA never counts as arriving soon.
func etaDays(order map[string]any) int {
	switch n := order["eta_days"].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 99
	}
}

// responseGeneration drafts the customer-facing reply text.
func responseGeneration(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)

	name, _ := in.GetMap("customer")["name"].(string)
	if name == "" {
		name = "Customer"
	}
	solution, _ := in.GetMap("decision")["solution"].(string)
	if solution == "" {
		solution = "reviewing"
	}

	text := fmt.Sprintf("Hi %s, we are working on your request. Proposed action: %s.", name, solution)
	return map[string]any{
		"response": map[string]any{"text": text},
	}, nil
}

// storeAnswer folds a received answer into the entities, filling the
// order id when it is still unknown.
func storeAnswer(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)

	entities := make(map[string]any, len(in.GetMap("entities"))+1)
	for k, v := range in.GetMap("entities") {
		entities[k] = v
	}

	answer, _ := in["answer"].(string)
	if answer != "" && isEmpty(entities["order_id"]) {
		entities["order_id"] = answer
	}

	return map[string]any{"entities": entities}, nil
}

// storeData summarizes knowledge-base hits down to their titles.
func storeData(_ context.Context, payload map[string]any) (map[string]any, error) {
	hits := api.Record(payload).GetSlice("kb_hits")

	summary := make([]any, 0, len(hits))
	for _, h := range hits {
		if hit, ok := h.(map[string]any); ok {
			summary = append(summary, hit["title"])
		}
	}

	return map[string]any{"kb_summary": summary}, nil
}

// updatePayload gathers the final decision and escalation into one field.
func updatePayload(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)
	return map[string]any{
		"decisions": map[string]any{
			"final":      in["decision"],
			"escalation": in["escalation"],
		},
	}, nil
}

// outputPayload marks the record as final.
func outputPayload(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{
		"output": map[string]any{"final": true},
	}, nil
}

// isEmpty reports whether a field value is absent for merge purposes.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
