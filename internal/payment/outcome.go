package payment

// Outcome is the class a remote result code falls into.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomePending:
		return "pending"
	default:
		return "unknown"
	}
}

// Transition is what applying an outcome did to a payment.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionSucceeded
	TransitionVoided
)

func (t Transition) String() string {
	switch t {
	case TransitionSucceeded:
		return "succeeded"
	case TransitionVoided:
		return "voided"
	default:
		return "none"
	}
}

// CanTransition lists the state changes this service performs. Deletion of
// a new payment is not a state change and is handled separately.
func CanTransition(from, to State) bool {
	switch from {
	case StateNew:
		return to == StateAuthorization || to == StateCompleted
	case StateAuthorization:
		return to == StateCompleted || to == StateVoided
	}
	return false
}
