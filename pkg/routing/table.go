// Package routing holds the read-only stage routing table: which server
// owns which ability per stage, the DECIDE score threshold, and the
// per-stage prompt text. A table is constructed once from configuration
// and never mutated; reloading means building a new table.
package routing

import "github.com/caseflow-dev/caseflow/pkg/config"

// DefaultServer is the fallback server identifier for unmapped
// (stage, ability) pairs when the configuration names none.
const DefaultServer = "COMMON"

// DefaultThreshold is the DECIDE escalation threshold when the
// configuration names none.
const DefaultThreshold = 90

// Table resolves abilities to server identifiers. The table is advisory,
// not exhaustive: lookups never fail, unmapped pairs resolve to the
// default server. Safe for concurrent use by multiple pipeline runs.
type Table struct {
	servers       map[string]map[string]string // stage -> ability -> server
	prompts       map[string]string
	threshold     int
	defaultServer string
}

// NewTable builds a routing table from the pipeline configuration.
// Missing fields fall back to the documented defaults: threshold 90,
// empty prompt, default server "COMMON".
func NewTable(cfg config.PipelineConfig) *Table {
	t := &Table{
		servers:       make(map[string]map[string]string, len(cfg.Stages)),
		prompts:       make(map[string]string, len(cfg.Stages)),
		threshold:     cfg.DecideThreshold,
		defaultServer: cfg.DefaultServer,
	}
	if t.threshold == 0 {
		t.threshold = DefaultThreshold
	}
	if t.defaultServer == "" {
		t.defaultServer = DefaultServer
	}

	for _, st := range cfg.Stages {
		abilities := make(map[string]string, len(st.Abilities))
		for _, a := range st.Abilities {
			if a.Server != "" {
				abilities[a.Name] = a.Server
			}
		}
		t.servers[st.Name] = abilities
		t.prompts[st.Name] = st.Prompt
	}

	return t
}

// Resolve returns the server identifier owning the given ability in the
// given stage. Unconditionally succeeds: unmapped pairs resolve to the
// default server.
func (t *Table) Resolve(stage, ability string) string {
	if server, ok := t.servers[stage][ability]; ok {
		return server
	}
	return t.defaultServer
}

// Threshold returns the DECIDE escalation threshold.
func (t *Table) Threshold() int {
	return t.threshold
}

// Prompt returns the free-text prompt for a stage, or "" when the stage
// has none configured.
func (t *Table) Prompt(stage string) string {
	return t.prompts[stage]
}

// Prompts returns a copy of the full stage prompt map. The pipeline
// runner seeds the initial record with it.
func (t *Table) Prompts() map[string]string {
	out := make(map[string]string, len(t.prompts))
	for k, v := range t.prompts {
		out[k] = v
	}
	return out
}
