package lifecycle

type State string

const (
	Idle              State = "idle"
	AwaitingSignature State = "awaiting_signature"
	Broadcasting      State = "broadcasting"
	Confirming        State = "confirming"
	Confirmed         State = "confirmed"
	Failed            State = "failed"
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingSignature:
		return "Waiting for wallet confirmation"
	case Broadcasting:
		return "Broadcasting"
	case Confirming:
		return "Confirming"
	case Confirmed:
		return "Confirmed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends a submission.
func (s State) Terminal() bool {
	return s == Confirmed || s == Failed
}

// CanSubmit reports whether a new submission may start from s.
func (s State) CanSubmit() bool {
	return s == Idle || s.Terminal()
}

// Pending reports whether a submission is in flight.
func (s State) Pending() bool {
	return !s.CanSubmit()
}

var transitions = map[State][]State{
	Idle:              {AwaitingSignature},
	AwaitingSignature: {Broadcasting, Failed},
	Broadcasting:      {Confirming, Failed},
	Confirming:        {Confirmed, Failed},
	Confirmed:         {Idle},
	Failed:            {Idle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
