package update

// Phase is the update engine's position in the update workflow.
// The engine is a small finite-state machine; every run moves strictly
// forward through these phases and ends in PhaseDone or PhaseFailed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCheckingVersion
	PhaseAwaitingModeChoice
	PhaseBackingUp
	PhaseCopying
	PhaseVerifying
	PhaseDone
	PhaseFailed
)

// String returns the phase name used in logs and error messages.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCheckingVersion:
		return "checking version"
	case PhaseAwaitingModeChoice:
		return "awaiting mode choice"
	case PhaseBackingUp:
		return "backing up"
	case PhaseCopying:
		return "copying"
	case PhaseVerifying:
		return "verifying"
	case PhaseDone:
		return "done"
	default:
		return "failed"
	}
}

// Mode selects how smart-update files are handled.
type Mode int

const (
	// ModeStandard overwrites a smart-update file silently only when it is
	// unmodified since the last update; modified files get a diff and a
	// confirmation prompt.
	ModeStandard Mode = iota

	// ModeForce overwrites smart-update files without prompting.
	// User-data files are still never touched.
	ModeForce
)

// String returns the mode name recorded in the update history.
func (m Mode) String() string {
	if m == ModeForce {
		return "force"
	}
	return "standard"
}
