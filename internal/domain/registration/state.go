package registration

// FormState tracks one registration attempt as the browser sees it:
// idle -> submitting -> registered | failed. A failed attempt goes back to idle.
type FormState string

const (
	StateIdle       FormState = "idle"
	StateSubmitting FormState = "submitting"
	StateRegistered FormState = "registered"
	StateFailed     FormState = "failed"
)

// Submit moves an idle (or failed) form into submitting. ok is false when
// a submit is not allowed from s.
func (s FormState) Submit() (FormState, bool) {
	switch s {
	case StateIdle, StateFailed:
		return StateSubmitting, true
	default:
		return s, false
	}
}

// Resolve finishes a submitting attempt.
func (s FormState) Resolve(err error) FormState {
	if s != StateSubmitting {
		return s
	}
	if err != nil {
		return StateFailed
	}
	return StateRegistered
}

// Reset returns a failed form to idle so it can be submitted again.
func (s FormState) Reset() FormState {
	if s == StateFailed {
		return StateIdle
	}
	return s
}

func (s FormState) IsTerminal() bool {
	return s == StateRegistered
}
