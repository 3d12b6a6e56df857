// Package model holds the core data types shared across the daemon: display
// geometry, peer records, the wire message envelope, and control state.
package model

import "sort"

// Display is an axis-aligned rectangle in a host's virtual-desktop coordinate
// space. The origin and sign conventions follow the host OS's own virtual
// screen convention; the core never reconciles them across hosts beyond
// proportional mapping.
type Display struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	IsPrimary bool   `json:"is_primary"`
}

// SortDisplays orders displays by X ascending, matching the ordered-sequence
// invariant a peer's display list must satisfy.
func SortDisplays(displays []Display) {
	sort.SliceStable(displays, func(i, j int) bool {
		return displays[i].X < displays[j].X
	})
}

// Bounds is the union bounding box of a set of displays.
type Bounds struct {
	MinX, MinY, MaxX, MaxY int
}

// UnionBounds computes the bounding box covering every display in the slice.
// Callers must not pass an empty slice.
func UnionBounds(displays []Display) Bounds {
	b := Bounds{
		MinX: displays[0].X,
		MinY: displays[0].Y,
		MaxX: displays[0].X + displays[0].Width,
		MaxY: displays[0].Y + displays[0].Height,
	}
	for _, d := range displays[1:] {
		if d.X < b.MinX {
			b.MinX = d.X
		}
		if d.Y < b.MinY {
			b.MinY = d.Y
		}
		if x2 := d.X + d.Width; x2 > b.MaxX {
			b.MaxX = x2
		}
		if y2 := d.Y + d.Height; y2 > b.MaxY {
			b.MaxY = y2
		}
	}
	return b
}

// Clamp pins (x, y) inside the bounds, inclusive of the max edges minus one
// pixel so the result always lies strictly inside the rectangle.
func (b Bounds) Clamp(x, y int) (int, int) {
	if x < b.MinX {
		x = b.MinX
	}
	if x > b.MaxX-1 {
		x = b.MaxX - 1
	}
	if y < b.MinY {
		y = b.MinY
	}
	if y > b.MaxY-1 {
		y = b.MaxY - 1
	}
	return x, y
}
