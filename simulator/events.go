package simulator

import "fmt"

// EventType represents the kind of scheduling decision
type EventType int

const (
	EventTypeArrival EventType = iota
	EventTypePromotion
	EventTypePreemption
	EventTypeDispatch
	EventTypeDemotion
	EventTypeRequeue
	EventTypeCompletion
)

func (et EventType) String() string {
	switch et {
	case EventTypeArrival:
		return "arrival"
	case EventTypePromotion:
		return "promotion"
	case EventTypePreemption:
		return "preemption"
	case EventTypeDispatch:
		return "dispatch"
	case EventTypeDemotion:
		return "demotion"
	case EventTypeRequeue:
		return "requeue"
	case EventTypeCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// MarshalText lets event types appear by name in JSON.
func (et EventType) MarshalText() ([]byte, error) {
	return []byte(et.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (et *EventType) UnmarshalText(text []byte) error {
	for t := EventTypeArrival; t <= EventTypeCompletion; t++ {
		if t.String() == string(text) {
			*et = t
			return nil
		}
	}
	return fmt.Errorf("unknown event type: %q", text)
}

// Event is one scheduling decision taken at a tick.
// From and To are priority levels; for arrivals and dispatches they are equal.
type Event struct {
	Tick  int       `json:"tick"`
	Type  EventType `json:"type"`
	JobID JobID     `json:"jobId"`
	From  int       `json:"from"`
	To    int       `json:"to"`
}

func (e Event) String() string {
	switch e.Type {
	case EventTypePromotion, EventTypeDemotion:
		return fmt.Sprintf("%s(t=%d, job=%d, L%d->L%d)", e.Type, e.Tick, e.JobID, e.From, e.To)
	default:
		return fmt.Sprintf("%s(t=%d, job=%d, L%d)", e.Type, e.Tick, e.JobID, e.To)
	}
}
