package integration

import (
	"net/http"
	"testing"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/transport"
)

func TestCreateCase_ResolvedOrder(t *testing.T) {
	c := createCase(t, "My order 12345 has not been delivered yet.", "high")

	if !api.ValidateCaseID(c.ID) {
		t.Errorf("case ID %q is malformed", c.ID)
	}
	if c.Object != "case" {
		t.Errorf("object = %q, want case", c.Object)
	}
	if c.Escalated {
		t.Error("known order with short ETA should not escalate")
	}

	decision := api.DecisionFromRecord(c.Record)
	if decision.Solution != "inform_and_wait" || decision.Score != 93 {
		t.Errorf("decision = %+v, want inform_and_wait/93", decision)
	}
	if status := c.Record.GetMap("ticket")["status"]; status != "resolved" {
		t.Errorf("ticket status = %v, want resolved", status)
	}
	if orderID := c.Record.GetMap("entities")["order_id"]; orderID != "12345" {
		t.Errorf("order_id = %v, want 12345", orderID)
	}
	if out := c.Record.GetMap("output"); out["final"] != true {
		t.Errorf("output = %v, want final payload marker", out)
	}
}

func TestCreateCase_EscalatesLowConfidence(t *testing.T) {
	c := createCase(t, "My shipment seems to be stuck somewhere.", "normal")

	if !c.Escalated {
		t.Fatal("unknown order should escalate")
	}
	escalation := api.EscalationFromRecord(c.Record)
	if escalation.Reason != "Low confidence in solution" {
		t.Errorf("reason = %q, want low-confidence reason", escalation.Reason)
	}
	if status := c.Record.GetMap("ticket")["status"]; status != "in_progress" {
		t.Errorf("ticket status = %v, want in_progress for escalated case", status)
	}
}

func TestGetCase_RoundTrip(t *testing.T) {
	created := createCase(t, "My order 12345 has not been delivered yet.", "high")

	resp := getURL(t, testEnv.BaseURL()+"/v1/cases/"+created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, readBody(t, resp))
	}

	var fetched api.Case
	decodeJSON(t, resp, &fetched)
	if fetched.ID != created.ID {
		t.Errorf("ID = %q, want %q", fetched.ID, created.ID)
	}
	if fetched.Record.GetString("query") != created.Record.GetString("query") {
		t.Errorf("query = %q, want the created query", fetched.Record.GetString("query"))
	}
}

func TestGetAuditLog_FullTrail(t *testing.T) {
	created := createCase(t, "My order 12345 has not been delivered yet.", "high")

	resp := getURL(t, testEnv.BaseURL()+"/v1/cases/"+created.ID+"/audit")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, readBody(t, resp))
	}

	var body struct {
		Object string           `json:"object"`
		Data   []map[string]any `json:"data"`
	}
	decodeJSON(t, resp, &body)

	if body.Object != "list" {
		t.Errorf("object = %q, want list", body.Object)
	}
	if len(body.Data) != 20 {
		t.Fatalf("audit log has %d entries, want 20 for a full run", len(body.Data))
	}
	if body.Data[0]["stage"] != "INTAKE" || body.Data[0]["ability"] != "accept_payload" {
		t.Errorf("first entry = %v, want INTAKE/accept_payload", body.Data[0])
	}
	last := body.Data[len(body.Data)-1]
	if last["stage"] != "COMPLETE" || last["ability"] != "output_payload" {
		t.Errorf("last entry = %v, want COMPLETE/output_payload", last)
	}

	// The non-escalation merge has no server; every entry carries
	// before and after snapshots.
	for i, entry := range body.Data {
		if _, ok := entry["before"]; !ok {
			t.Errorf("entry %d missing before snapshot", i)
		}
		if _, ok := entry["after"]; !ok {
			t.Errorf("entry %d missing after snapshot", i)
		}
	}
}

func TestListCases_EscalatedFilter(t *testing.T) {
	createCase(t, "My order 12345 has not been delivered yet.", "high")
	escalated := createCase(t, "My shipment seems to be stuck somewhere.", "normal")

	resp := getURL(t, testEnv.BaseURL()+"/v1/cases?escalated=true&limit=100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, readBody(t, resp))
	}

	var list transport.CaseList
	decodeJSON(t, resp, &list)
	if list.Object != "list" {
		t.Errorf("object = %q, want list", list.Object)
	}

	found := false
	for _, c := range list.Data {
		if !c.Escalated {
			t.Errorf("case %s in escalated list is not escalated", c.ID)
		}
		if c.ID == escalated.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("escalated case %s missing from filtered list", escalated.ID)
	}
}

func TestDeleteCase_ThenGone(t *testing.T) {
	created := createCase(t, "My order 12345 has not been delivered yet.", "high")

	resp := deleteURL(t, testEnv.BaseURL()+"/v1/cases/"+created.ID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = getURL(t, testEnv.BaseURL()+"/v1/cases/"+created.ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
}
