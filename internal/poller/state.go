package poller

// State is the poller's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateReplacing
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReplacing:
		return "replacing"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Outcome classifies how a cycle ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeFetchError  Outcome = "fetch_error"
	OutcomeDecodeError Outcome = "decode_error"
	OutcomeStoreError  Outcome = "store_error"
	OutcomePanic       Outcome = "panic"
	OutcomeCancelled   Outcome = "cancelled"
)
