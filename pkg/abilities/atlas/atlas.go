// Package atlas implements the ATLAS server: the abilities that touch
// external systems — entity extraction, order lookup, knowledge-base
// search, ticket transitions, API side effects, and notifications. The
// external systems are fixtures here; real deployments swap in their
// own provider behind the same server identifier.
package atlas

import (
	"context"
	"strings"

	"github.com/caseflow-dev/caseflow/pkg/abilities"
	"github.com/caseflow-dev/caseflow/pkg/api"
)

// orders is the order-system fixture keyed by order id.
var orders = map[string]map[string]any{
	"12345": {
		"order_id": "12345",
		"status":   "in_transit",
		"eta_days": 2,
		"items": []any{
			map[string]any{"sku": "SKU123", "name": "Wireless Mouse", "qty": 1},
		},
	},
}

// knowledgeBase is the KB fixture, tagged by intent.
var knowledgeBase = []map[string]any{
	{"id": "kb1", "title": "Delayed shipment policy", "score": 0.92, "intent": "shipping_issue"},
	{"id": "kb2", "title": "How to track your order", "score": 0.88, "intent": "shipping_issue"},
	{"id": "kb3", "title": "General support", "score": 0.5, "intent": "unknown"},
}

// Provider is the ATLAS ability backend.
type Provider struct{}

// Ensure Provider implements abilities.Provider at compile time.
var _ abilities.Provider = (*Provider)(nil)

// New creates the ATLAS provider.
func New() *Provider {
	return &Provider{}
}

// Name returns the server identifier "ATLAS".
func (p *Provider) Name() string { return "ATLAS" }

// Handlers returns the ability map of the ATLAS server.
func (p *Provider) Handlers() map[string]abilities.Handler {
	return map[string]abilities.Handler{
		"extract_entities":      extractEntities,
		"enrich_records":        enrichRecords,
		"clarify_question":      clarifyQuestion,
		"extract_answer":        extractAnswer,
		"knowledge_base_search": knowledgeBaseSearch,
		"update_ticket":         updateTicket,
		"close_ticket":          closeTicket,
		"execute_api_calls":     executeAPICalls,
		"trigger_notifications": triggerNotifications,
		"escalation_decision":   escalationDecision,
	}
}

// extractEntities scans the query for an order id: the first token of
// five or more digits. The order_id entity is nil when none is found.
func extractEntities(_ context.Context, payload map[string]any) (map[string]any, error) {
	query := api.Record(payload).GetString("query")

	var orderID any
	for _, word := range strings.Fields(query) {
		if len(word) >= 5 && allDigits(word) {
			orderID = word
			break
		}
	}

	return map[string]any{
		"entities": map[string]any{"order_id": orderID},
	}, nil
}

// enrichRecords looks the extracted order id up in the order system.
// An unknown or missing id yields a nil order.
func enrichRecords(_ context.Context, payload map[string]any) (map[string]any, error) {
	entities := api.Record(payload).GetMap("entities")

	var orderInfo any
	if id, ok := entities["order_id"].(string); ok {
		if order, found := orders[id]; found {
			orderInfo = order
		}
	}

	return map[string]any{"order": orderInfo}, nil
}

// clarifyQuestion asks for the order id when it is still unknown.
func clarifyQuestion(_ context.Context, payload map[string]any) (map[string]any, error) {
	entities := api.Record(payload).GetMap("entities")

	question := "Thanks, we have all details."
	if entities["order_id"] == nil {
		question = "Could you share your order id?"
	}

	return map[string]any{
		"ask": map[string]any{"question": question},
	}, nil
}

// extractAnswer simulates receiving the customer's reply: when no order
// id is known yet, the answer supplies one.
func extractAnswer(_ context.Context, payload map[string]any) (map[string]any, error) {
	entities := api.Record(payload).GetMap("entities")

	var answer any
	if entities["order_id"] == nil {
		answer = "12345"
	}

	return map[string]any{"answer": answer}, nil
}

// knowledgeBaseSearch returns KB entries matching the parsed intent,
// falling back to the general entries when nothing matches.
func knowledgeBaseSearch(_ context.Context, payload map[string]any) (map[string]any, error) {
	intent, _ := api.Record(payload).GetMap("parsed")["intent"].(string)

	hits := kbByIntent(intent)
	if len(hits) == 0 {
		hits = kbByIntent("unknown")
	}

	return map[string]any{"kb_hits": hits}, nil
}

func kbByIntent(intent string) []any {
	var hits []any
	for _, entry := range knowledgeBase {
		if entry["intent"] == intent {
			hits = append(hits, entry)
		}
	}
	return hits
}

// updateTicket moves the ticket into in_progress.
func updateTicket(_ context.Context, payload map[string]any) (map[string]any, error) {
	ticket := copyTicket(payload)
	ticket["status"] = "in_progress"
	return map[string]any{"ticket": ticket}, nil
}

// closeTicket resolves the ticket unless escalation is required.
func closeTicket(_ context.Context, payload map[string]any) (map[string]any, error) {
	in := api.Record(payload)

	ticket := copyTicket(payload)
	if required, _ := in.GetMap("escalation")["required"].(bool); !required {
		ticket["status"] = "resolved"
	}

	return map[string]any{"ticket": ticket}, nil
}

// executeAPICalls issues the side-effecting actions for the decision.
func executeAPICalls(_ context.Context, payload map[string]any) (map[string]any, error) {
	solution, _ := api.Record(payload).GetMap("decision")["solution"].(string)

	action := "expedite_shipping"
	if solution == "inform_and_wait" {
		action = "no_api_needed"
	}

	return map[string]any{"actions": []any{action}}, nil
}

// triggerNotifications queues an email to the customer.
func triggerNotifications(_ context.Context, payload map[string]any) (map[string]any, error) {
	email := api.Record(payload).GetMap("customer")["email"]

	return map[string]any{
		"notifications": []any{
			map[string]any{"type": "email", "to": email},
		},
	}, nil
}

// escalationDecision flags low-confidence decisions for human handling.
// The payload is the decision itself, as produced by solution_evaluation.
func escalationDecision(_ context.Context, payload map[string]any) (map[string]any, error) {
	score := 0
	switch n := payload["score"].(type) {
	case int:
		score = n
	case int64:
		score = int(n)
	case float64:
		score = int(n)
	}

	escalation := map[string]any{"required": false}
	if score < 90 {
		escalation = map[string]any{
			"required": true,
			"reason":   "Low confidence in solution",
		}
	}

	return map[string]any{"escalation": escalation}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func copyTicket(payload map[string]any) map[string]any {
	src := api.Record(payload).GetMap("ticket")
	ticket := make(map[string]any, len(src)+1)
	for k, v := range src {
		ticket[k] = v
	}
	return ticket
}
