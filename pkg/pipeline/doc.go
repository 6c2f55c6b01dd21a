// Package pipeline runs case records through the fixed eleven-stage
// support workflow: INTAKE, UNDERSTAND, PREPARE, ASK, WAIT, RETRIEVE,
// DECIDE, UPDATE, CREATE, DO, COMPLETE.
//
// The stage order is deterministic. The only branch is inside DECIDE:
// a solution score below the routing table's threshold invokes the
// escalation ability, while a score at or above it records a synthetic
// non-escalation entry without any server call. A run always reaches
// COMPLETE; ability failures are carried in the record as error-shaped
// fields, never raised.
package pipeline
