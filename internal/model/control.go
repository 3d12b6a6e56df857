package model

// Phase is the tri-state control ownership value held process-wide.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseControllingRemote  Phase = "controlling_remote"
	PhaseBeingControlled    Phase = "being_controlled"
)

// Edge identifies one of the four sides of a display union.
type Edge string

const (
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
)

// ParseEdge validates an edge value, rejecting anything outside the four
// known directions at the configuration boundary.
func ParseEdge(s string) (Edge, bool) {
	switch Edge(s) {
	case EdgeLeft, EdgeRight, EdgeTop, EdgeBottom:
		return Edge(s), true
	default:
		return "", false
	}
}

// Point is an integer coordinate in some virtual-desktop frame.
type Point struct {
	X, Y int
}

// ControlState is the process-wide control tuple described by the data
// model: phase, edge lock, the core's estimate of the remote cursor, the
// cooldown timestamp, and the configured remote edge.
type ControlState struct {
	Phase          Phase
	EdgeLock       Point
	RemoteCursor   Point
	ControlStartMs int64
	RemoteEdge     Edge
}

// DebugSnapshot is the observable status the GUI collaborator polls.
type DebugSnapshot struct {
	MouseX            int
	MouseY            int
	ScreenBounds      Bounds
	EdgeStatus        Phase
	RemoteScreenCount int
	LastUpdateMs      int64
}
