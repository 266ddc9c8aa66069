package gate

// Outcome is the terminal result of one gate run.
type Outcome int

const (
	// Pending: questions are posted (or freshly posted this run) and
	// answers have not been evaluated yet. Not a failure.
	Pending Outcome = iota
	// Skipped: nothing to gate (empty or below-threshold diff).
	Skipped
	// Pass: the author's answers were judged sufficient.
	Pass
	// Fail: the answers were judged insufficient or absent.
	Fail
	// GateError: the tool itself broke. Distinct from Fail so a
	// broken judge never reads as a failed author.
	GateError
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "PENDING"
	case Skipped:
		return "SKIPPED"
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case GateError:
		return "GATE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps the outcome to the process exit status reported to the
// CI job. 78 is the conventional neutral code, so a pending gate shows
// as in-progress rather than failed.
func (o Outcome) ExitCode() int {
	switch o {
	case Pass, Skipped:
		return 0
	case Pending:
		return 78
	case Fail:
		return 1
	default:
		return 2
	}
}
