package coloring

// Tool is the effect a pointer drag has on the canvas.
type Tool int

const (
	ToolBrush Tool = iota
	ToolPan
)

func (t Tool) String() string {
	if t == ToolPan {
		return "pan"
	}
	return "brush"
}

// Interaction turns pointer gestures into strokes or pan moves.
// It is driven from the input loop and is not safe for concurrent use.
type Interaction struct {
	session *Session
	tool    Tool

	drawing bool
	panning bool
	last    Point // client position of the last pan sample
}

// NewInteraction returns an interaction with the brush tool active.
func NewInteraction(s *Session) *Interaction {
	return &Interaction{session: s}
}

// Tool returns the active tool.
func (in *Interaction) Tool() Tool { return in.tool }

// SetTool activates a tool, ending any gesture in progress. The pan tool
// cannot be picked while the zoom level forbids panning.
func (in *Interaction) SetTool(t Tool) bool {
	if t == ToolPan && !in.session.View().CanPan() {
		return false
	}
	in.Up()
	in.tool = t
	return true
}

// Active reports whether a stroke or a pan is in progress.
func (in *Interaction) Active() bool { return in.drawing || in.panning }

// Down starts a gesture. r is the on-screen box of the canvas.
func (in *Interaction) Down(ev PointerEvent, r Rect) {
	in.Up()
	switch in.tool {
	case ToolBrush:
		p := CanvasPoint(ev, r, Size, Size)
		in.drawing = in.session.BeginStroke(p.X, p.Y)
	case ToolPan:
		if in.session.View().CanPan() {
			in.panning = true
			in.last = ClientPoint(ev)
		}
	}
}

// Move continues the gesture in progress.
func (in *Interaction) Move(ev PointerEvent, r Rect) {
	switch {
	case in.drawing:
		p := CanvasPoint(ev, r, Size, Size)
		in.session.ContinueStroke(p.X, p.Y)
	case in.panning:
		c := ClientPoint(ev)
		in.session.View().PanBy(float32(c.X-in.last.X), float32(c.Y-in.last.Y))
		in.last = c
	}
}

// Up ends the gesture in progress. It is also used when the pointer leaves
// the canvas or the gesture is cancelled.
func (in *Interaction) Up() {
	if in.drawing {
		in.drawing = false
		in.session.EndStroke()
	}
	in.panning = false
}
