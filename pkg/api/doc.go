// Package api defines the shared data model of the caseflow pipeline:
// the open Record document carried through the stages, the immutable
// AuditEntry appended on every merge, the Decision and Escalation
// sub-structures produced by the DECIDE stage, and the structured
// error types used on the dispatch and HTTP surfaces.
//
// The Record is deliberately schema-free. Abilities return partial
// field updates that are merged at the top level; the recognized
// fields per stage are documented on the pipeline package.
package api
