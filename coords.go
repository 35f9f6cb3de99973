package coloring

// Touch is a single contact point of a touch event, in client coordinates.
type Touch struct {
	X, Y float64
}

// PointerEvent is a mouse or touch sample in client coordinates.
// HasPos is false when the event carried no position at all.
type PointerEvent struct {
	X, Y    float64
	HasPos  bool
	Touches []Touch
}

// Rect is the on-screen bounding box of the canvas, in client coordinates.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// ClientPoint returns the client position of the event: the first touch
// point when there is one, else the mouse position, else the origin.
func ClientPoint(ev PointerEvent) Point {
	switch {
	case len(ev.Touches) > 0:
		return Point{X: ev.Touches[0].X, Y: ev.Touches[0].Y}
	case ev.HasPos:
		return Point{X: ev.X, Y: ev.Y}
	}
	return Point{}
}

// CanvasPoint maps the event into the canvas' intrinsic pixel space, given
// the rendered bounding box and the intrinsic size of the canvas.
func CanvasPoint(ev PointerEvent, r Rect, intrinsicW, intrinsicH int) Point {
	c := ClientPoint(ev)
	sx, sy := 1.0, 1.0
	if r.Width > 0 {
		sx = float64(intrinsicW) / r.Width
	}
	if r.Height > 0 {
		sy = float64(intrinsicH) / r.Height
	}
	return Point{
		X: (c.X - r.Left) * sx,
		Y: (c.Y - r.Top) * sy,
	}
}
