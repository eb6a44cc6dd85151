package lifecycle

import "fmt"

// Phase is an entity identity's position in the activation state machine.
//
// Transitions:
//
//	Absent -> Loading         first operation for a storage-backed kind
//	Absent -> Active          first operation, nothing to load
//	Loading -> Active         load finished (value present or absent)
//	Active -> Active          each subsequent operation
//	Active -> Deactivating    commit in flight after an operation
//	Deactivating -> Absent    destructed or evicted
//	Deactivating -> Active    checkpointed, memory retained
//
// Absent is both the initial state and the terminal state of an activation
// epoch; the identity itself never dies and may re-enter Loading later.
type Phase int

const (
	Absent Phase = iota
	Loading
	Active
	Deactivating
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Absent:
		return "absent"
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Deactivating:
		return "deactivating"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// legal enumerates the allowed transitions.
var legal = map[Phase][]Phase{
	Absent:       {Loading, Active},
	Loading:      {Active},
	Active:       {Active, Deactivating},
	Deactivating: {Absent, Active},
}

// CanTransition reports whether from -> to is a legal lifecycle transition.
func CanTransition(from, to Phase) bool {
	for _, next := range legal[from] {
		if next == to {
			return true
		}
	}
	return false
}
