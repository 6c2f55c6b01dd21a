// Command caseflow-demo runs one support request through the full
// eleven-stage pipeline in-process and prints the resulting case
// record. No server, storage, or network involved.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caseflow-dev/caseflow/pkg/abilities/atlas"
	"github.com/caseflow-dev/caseflow/pkg/abilities/common"
	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/config"
	"github.com/caseflow-dev/caseflow/pkg/dispatch"
	"github.com/caseflow-dev/caseflow/pkg/pipeline"
	"github.com/caseflow-dev/caseflow/pkg/routing"
)

func main() {
	fmt.Println("=== caseflow pipeline demo ===")
	fmt.Println()

	// 1. Register the two ability providers in-process.
	registry := dispatch.NewRegistry()
	registry.Register(common.New())
	registry.Register(atlas.New())

	// 2. Build the routing table with the standard stage mapping.
	table := routing.NewTable(demoPipeline())
	fmt.Printf("[1] Routing table built (threshold %d)\n", table.Threshold())

	// 3. Run a sample support request.
	input := map[string]any{
		"customer_name": "Amiya",
		"email":         "amiya@example.com",
		"query":         "My order 12345 has not been delivered yet.",
		"priority":      "high",
		"ticket_id":     "T-1001",
	}
	engine := pipeline.New(table, registry)
	rec := engine.Run(context.Background(), input)
	fmt.Printf("[2] Pipeline completed: %d stages, %d audit entries\n",
		len(pipeline.Sequence), len(rec.AuditLog()))

	// 4. Summarize the outcome.
	decision := api.DecisionFromRecord(rec)
	escalation := api.EscalationFromRecord(rec)
	fmt.Printf("[3] Decision: %s (score %d), escalated: %v\n",
		decision.Solution, decision.Score, escalation.Required)

	// 5. Print the audit trail.
	fmt.Println("\n[4] Audit trail:")
	for _, entry := range rec.AuditLog() {
		server := entry.Server
		if server == "" {
			server = "-"
		}
		fmt.Printf("    %-10s %-24s %s\n", entry.Stage, entry.Ability, server)
	}

	// 6. Print the final record.
	data, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Printf("\n[5] Final case record:\n%s\n", data)
}

// demoPipeline is the standard stage mapping: record-local abilities on
// COMMON, external-system abilities on ATLAS.
func demoPipeline() config.PipelineConfig {
	stage := func(name, prompt string, abilities ...config.AbilityConfig) config.StageConfig {
		return config.StageConfig{Name: name, Prompt: prompt, Abilities: abilities}
	}
	ability := func(name, server string) config.AbilityConfig {
		return config.AbilityConfig{Name: name, Server: server}
	}

	return config.PipelineConfig{
		DecideThreshold: 90,
		DefaultServer:   "COMMON",
		Stages: []config.StageConfig{
			stage("INTAKE", "accept the incoming payload",
				ability("accept_payload", "COMMON")),
			stage("UNDERSTAND", "parse the request",
				ability("parse_request_text", "COMMON"),
				ability("extract_entities", "ATLAS")),
			stage("PREPARE", "normalize and enrich",
				ability("normalize_fields", "COMMON"),
				ability("enrich_records", "ATLAS"),
				ability("add_flags_calculations", "COMMON")),
			stage("ASK", "ask for missing details",
				ability("clarify_question", "ATLAS")),
			stage("WAIT", "wait for the customer",
				ability("extract_answer", "ATLAS"),
				ability("store_answer", "COMMON")),
			stage("RETRIEVE", "search the knowledge base",
				ability("knowledge_base_search", "ATLAS"),
				ability("store_data", "COMMON")),
			stage("DECIDE", "evaluate and decide",
				ability("solution_evaluation", "COMMON"),
				ability("escalation_decision", "ATLAS"),
				ability("update_payload", "COMMON")),
			stage("UPDATE", "update the ticket",
				ability("update_ticket", "ATLAS"),
				ability("close_ticket", "ATLAS")),
			stage("CREATE", "draft the response",
				ability("response_generation", "COMMON")),
			stage("DO", "execute actions",
				ability("execute_api_calls", "ATLAS"),
				ability("trigger_notifications", "ATLAS")),
			stage("COMPLETE", "emit the final payload",
				ability("output_payload", "COMMON")),
		},
	}
}
