package types

// ------------------------
// Boot state (retained)
// ------------------------

// BootLevel is the coarse lifecycle of the bring-up sequence.
type BootLevel string

const (
	BootStarting BootLevel = "starting"
	BootWaiting  BootLevel = "waiting" // blocked on the network core
	BootRunning  BootLevel = "running" // steady-state loop entered
	BootFailed   BootLevel = "failed"  // a step failed; the driver halts
)

type BootState struct {
	Level  BootLevel `json:"level"`
	Step   string    `json:"step,omitempty"`
	Status string    `json:"status"`          // freeform short code
	BootID string    `json:"boot_id"`         // one id per boot cycle
	Error  string    `json:"error,omitempty"` // machine-readable short code
	TS     int64     `json:"ts_ns"`
}

// ------------------------
// Step progress (not retained)
// ------------------------

type StepPhase string

const (
	StepBegin   StepPhase = "begin"
	StepDone    StepPhase = "done"
	StepSkipped StepPhase = "skipped"
	StepFailed  StepPhase = "failed"
)

type StepEvent struct {
	Index int       `json:"index"`
	Name  string    `json:"name"`
	Phase StepPhase `json:"phase"`
	Error string    `json:"error,omitempty"`
	TS    int64     `json:"ts_ns"`
}

// ------------------------
// Board + role facts (retained)
// ------------------------

type BoardInfo struct {
	Revision string `json:"revision"`
	BoardID  uint16 `json:"board_id"`
	Mask     uint32 `json:"mask"`
}

type RoleInfo struct {
	Role     string `json:"role"`
	Channel  string `json:"channel"`
	Assigned bool   `json:"assigned"`
}

// ------------------------
// Diagnostics
// ------------------------

type StackUsage struct {
	Context     string `json:"context"`
	UnusedBytes uint32 `json:"unused_bytes"`
	TS          int64  `json:"ts_ns"`
}
