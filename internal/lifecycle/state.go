package lifecycle

// State это состояние одной операции.
//
// Переходы: Idle -> Validating -> (Rejected | Submitting) -> (Succeeded | Failed).
// Toggle и Delete не проходят Validating, но заканчиваются так же.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight сообщает, что операция ещё не завершилась.
func (s State) InFlight() bool {
	return s == StateValidating || s == StateSubmitting
}
