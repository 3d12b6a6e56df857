package control

import "github.com/macwinctl/macwinctl/internal/model"

// atEdge reports whether (mx, my) lies within threshold pixels of the
// configured edge of bounds. Only the armed edge is checked; the other
// three sides are ignored entirely, matching the spec's "only the
// configured remote_edge is armed" rule.
func atEdge(mx, my int, b model.Bounds, edge model.Edge, threshold int) bool {
	switch edge {
	case model.EdgeRight:
		return mx >= b.MaxX-threshold
	case model.EdgeLeft:
		return mx <= b.MinX+threshold
	case model.EdgeTop:
		return my <= b.MinY+threshold
	case model.EdgeBottom:
		return my >= b.MaxY-threshold
	default:
		return false
	}
}

// relativePosition computes the cursor's position along the axis
// perpendicular to edge, as a fraction of the local bounds' span on that
// axis, clamped to [0, 1].
func relativePosition(mx, my int, b model.Bounds, edge model.Edge) float64 {
	var rel float64
	switch edge {
	case model.EdgeLeft, model.EdgeRight:
		span := b.MaxY - b.MinY
		if span <= 0 {
			return 0
		}
		rel = float64(my-b.MinY) / float64(span)
	case model.EdgeTop, model.EdgeBottom:
		span := b.MaxX - b.MinX
		if span <= 0 {
			return 0
		}
		rel = float64(mx-b.MinX) / float64(span)
	}
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}

// mapToRemoteEntry maps a relative position on the local armed edge to the
// corresponding entry point just inside the remote screen union, offset
// pixels in from the remote's mirrored edge.
func mapToRemoteEntry(edge model.Edge, remote model.Bounds, rel float64, offset int) model.Point {
	switch edge {
	case model.EdgeRight:
		return model.Point{X: remote.MinX + offset, Y: remote.MinY + int(rel*float64(remote.MaxY-remote.MinY))}
	case model.EdgeLeft:
		return model.Point{X: remote.MaxX - offset, Y: remote.MinY + int(rel*float64(remote.MaxY-remote.MinY))}
	case model.EdgeBottom:
		return model.Point{X: remote.MinX + int(rel*float64(remote.MaxX-remote.MinX)), Y: remote.MinY + offset}
	case model.EdgeTop:
		return model.Point{X: remote.MinX + int(rel*float64(remote.MaxX-remote.MinX)), Y: remote.MaxY - offset}
	default:
		return model.Point{}
	}
}

// edgeLockPosition is the pixel-adjacent local position the cursor is
// pinned to for the duration of CONTROLLING_REMOTE.
func edgeLockPosition(edge model.Edge, b model.Bounds, mx, my int) model.Point {
	switch edge {
	case model.EdgeRight:
		return model.Point{X: b.MaxX - 1, Y: my}
	case model.EdgeLeft:
		return model.Point{X: b.MinX, Y: my}
	case model.EdgeBottom:
		return model.Point{X: mx, Y: b.MaxY - 1}
	case model.EdgeTop:
		return model.Point{X: mx, Y: b.MinY}
	default:
		return model.Point{X: mx, Y: my}
	}
}

// crossedReturnBoundary reports whether the tentative remote cursor
// position has passed back over the edge it originally entered through.
func crossedReturnBoundary(edge model.Edge, p model.Point, remote model.Bounds) bool {
	switch edge {
	case model.EdgeRight:
		return p.X < remote.MinX
	case model.EdgeLeft:
		return p.X > remote.MaxX
	case model.EdgeBottom:
		return p.Y < remote.MinY
	case model.EdgeTop:
		return p.Y > remote.MaxY
	default:
		return false
	}
}

// inwardReturnPoint is where the local cursor lands after a return: pushed
// inward from the originating edge by inward pixels, preserving the
// orthogonal coordinate it had at the moment of edge lock.
func inwardReturnPoint(edge model.Edge, b model.Bounds, lock model.Point, inward int) (int, int) {
	switch edge {
	case model.EdgeRight:
		return b.MaxX - inward, lock.Y
	case model.EdgeLeft:
		return b.MinX + inward, lock.Y
	case model.EdgeBottom:
		return lock.X, b.MaxY - inward
	case model.EdgeTop:
		return lock.X, b.MinY + inward
	default:
		return lock.X, lock.Y
	}
}
