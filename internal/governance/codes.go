package governance

// Code classifies an evaluation error.
type Code string

// Schema
const (
	CodeSchemaInvalid     Code = "SCHEMA_INVALID"
	CodeArtifactsNotArray Code = "ARTIFACTS_NOT_ARRAY"
)

// Authority
const (
	CodeHumanGateRequired Code = "HUMAN_GATE_REQUIRED"
)

// Recovery gate
const (
	CodePreflightRequired       Code = "SEEDSWEEP_PREFLIGHT_REQUIRED"
	CodeRecoveryNotGreen        Code = "SEEDSWEEP_NOT_GREEN"
	CodeRecoveryNotApproved     Code = "SEEDSWEEP_NOT_APPROVED"
	CodeRecoveryWrongKind       Code = "SEEDSWEEP_WRONG_COMPILER"
	CodeRecoveryArtifactMissing Code = "SEEDSWEEP_ARTIFACT_MISSING"
	CodeNoActiveRecovery        Code = "NO_ACTIVE_SEEDSWEEP"
	CodeNotInRecovery           Code = "NOT_IN_SEEDSWEEP"
)

// Structural
const (
	CodeCoreArtifactMissing   Code = "CORE_ARTIFACT_MISSING"
	CodeDuplicateCoreArtifact Code = "DUPLICATE_CORE_ARTIFACT"
	CodeMissingCoreArtifacts  Code = "MISSING_CORE_ARTIFACTS"
	CodeArtifactNotFound      Code = "ARTIFACT_NOT_FOUND"
)

// Transition
const (
	CodeSessionAlreadyFinal Code = "SESSION_ALREADY_FINAL"
	CodeNotAwaitingSignoff  Code = "NOT_AWAITING_SIGNOFF"
	CodeNotReadyToFinalize  Code = "NOT_READY_TO_FINALIZE"
	CodeSignoffRequired     Code = "SIGNOFF_REQUIRED"
	CodeCoreNotApproved     Code = "CORE_NOT_APPROVED"
	CodeRedBlocksFinalize   Code = "STOPLIGHT_RED_BLOCKS_FINALIZE"
)
