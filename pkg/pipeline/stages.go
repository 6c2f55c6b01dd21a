package pipeline

// Stage identifies one step of the case workflow.
type Stage string

// The eleven workflow stages, in execution order.
const (
	StageIntake     Stage = "INTAKE"
	StageUnderstand Stage = "UNDERSTAND"
	StagePrepare    Stage = "PREPARE"
	StageAsk        Stage = "ASK"
	StageWait       Stage = "WAIT"
	StageRetrieve   Stage = "RETRIEVE"
	StageDecide     Stage = "DECIDE"
	StageUpdate     Stage = "UPDATE"
	StageCreate     Stage = "CREATE"
	StageDo         Stage = "DO"
	StageComplete   Stage = "COMPLETE"
)

// Sequence is the fixed stage order of every run.
var Sequence = []Stage{
	StageIntake,
	StageUnderstand,
	StagePrepare,
	StageAsk,
	StageWait,
	StageRetrieve,
	StageDecide,
	StageUpdate,
	StageCreate,
	StageDo,
	StageComplete,
}
