package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/caseflow-dev/caseflow/pkg/api"
	"github.com/caseflow-dev/caseflow/pkg/debug"
	"github.com/caseflow-dev/caseflow/pkg/dispatch"
	"github.com/caseflow-dev/caseflow/pkg/ledger"
	"github.com/caseflow-dev/caseflow/pkg/observability"
	"github.com/caseflow-dev/caseflow/pkg/routing"
)

// Engine executes the stage sequence against a routing table and a
// dispatcher. It is stateless across runs; every Run starts from a
// fresh record seeded from the input payload.
type Engine struct {
	table      *routing.Table
	dispatcher dispatch.Dispatcher
}

// New creates an Engine bound to the given routing table and dispatcher.
func New(table *routing.Table, dispatcher dispatch.Dispatcher) *Engine {
	return &Engine{table: table, dispatcher: dispatcher}
}

// Run executes the full stage sequence for one input payload and
// returns the final case record. The seed record carries the raw input
// under "input", the input's own fields at the top level, an empty
// audit log, and the stage prompts from the routing table.
func (e *Engine) Run(ctx context.Context, input map[string]any) api.Record {
	start := time.Now()
	observability.PipelineRunsActive.Inc()
	defer observability.PipelineRunsActive.Dec()

	rec := api.Record{}
	rec["input"] = input
	for k, v := range input {
		rec[k] = v
	}
	rec["audit_log"] = []api.AuditEntry{}
	rec["prompts"] = e.table.Prompts()

	for _, stage := range Sequence {
		stageStart := time.Now()
		e.runStage(ctx, rec, stage)
		observability.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(stageStart).Seconds())
	}

	escalated := api.EscalationFromRecord(rec).Required
	outcome := "resolved"
	if escalated {
		outcome = "escalated"
		observability.EscalationsTotal.Inc()
	}
	observability.PipelineRunsTotal.WithLabelValues(outcome).Inc()
	observability.PipelineDuration.Observe(time.Since(start).Seconds())

	slog.Info("pipeline run finished",
		"outcome", outcome,
		"stages", len(Sequence),
		"audit_entries", len(rec.AuditLog()),
		"duration", time.Since(start),
	)
	return rec
}

func (e *Engine) runStage(ctx context.Context, rec api.Record, stage Stage) {
	switch stage {
	case StageIntake:
		e.invoke(ctx, rec, stage, "accept_payload", rec.GetMap("input"))

	case StageUnderstand:
		e.invoke(ctx, rec, stage, "parse_request_text", map[string]any{"query": rec["query"]})
		e.invoke(ctx, rec, stage, "extract_entities", map[string]any{"query": rec["query"]})

	case StagePrepare:
		e.invoke(ctx, rec, stage, "normalize_fields", map[string]any{"ticket": rec["ticket"]})
		e.invoke(ctx, rec, stage, "enrich_records", map[string]any{"entities": rec["entities"]})
		e.invoke(ctx, rec, stage, "add_flags_calculations", map[string]any{
			"ticket": rec["ticket"],
			"parsed": rec["parsed"],
		})

	case StageAsk:
		e.invoke(ctx, rec, stage, "clarify_question", rec)

	case StageWait:
		e.invoke(ctx, rec, stage, "extract_answer", rec)
		e.invoke(ctx, rec, stage, "store_answer", rec)

	case StageRetrieve:
		e.invoke(ctx, rec, stage, "knowledge_base_search", map[string]any{"parsed": rec["parsed"]})
		e.invoke(ctx, rec, stage, "store_data", rec)

	case StageDecide:
		e.runDecide(ctx, rec)

	case StageUpdate:
		e.invoke(ctx, rec, stage, "update_ticket", rec)
		e.invoke(ctx, rec, stage, "close_ticket", rec)

	case StageCreate:
		e.invoke(ctx, rec, stage, "response_generation", rec)

	case StageDo:
		e.invoke(ctx, rec, stage, "execute_api_calls", rec)
		e.invoke(ctx, rec, stage, "trigger_notifications", rec)

	case StageComplete:
		e.invoke(ctx, rec, stage, "output_payload", rec)
	}
}

// runDecide scores the solution, then branches on the threshold: a
// score strictly below it calls the escalation ability with the
// decision as payload; otherwise a synthetic non-escalation update is
// recorded without touching the dispatcher. A score equal to the
// threshold does not escalate.
func (e *Engine) runDecide(ctx context.Context, rec api.Record) {
	e.invoke(ctx, rec, StageDecide, "solution_evaluation", rec)

	if api.DecisionFromRecord(rec).Score < e.table.Threshold() {
		e.invoke(ctx, rec, StageDecide, "escalation_decision", rec.GetMap("decision"))
	} else {
		ledger.Apply(rec, string(StageDecide), "escalation_decision",
			map[string]any{"escalation": map[string]any{"required": false}}, "")
	}

	e.invoke(ctx, rec, StageDecide, "update_payload", rec)
}

// invoke resolves the owning server, dispatches the ability, and folds
// the resulting updates into the record through the ledger.
func (e *Engine) invoke(ctx context.Context, rec api.Record, stage Stage, ability string, payload map[string]any) {
	server := e.table.Resolve(string(stage), ability)
	debug.Log("pipeline", "invoking ability",
		"stage", string(stage), "ability", ability, "server", server)
	updates, used := e.dispatcher.Invoke(ctx, server, ability, payload)
	ledger.Apply(rec, string(stage), ability, updates, used)
}
