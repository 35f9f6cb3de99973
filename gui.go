package coloring

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/jeana-hines/coloring-app-aws/utils"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const (
	windowW = 900
	windowH = 900
)

var (
	backgroundColor = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	statusColor     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xdd}
)

// Gui hosts the canvas of a session in a gio window.
type Gui struct {
	session  *Session
	input    *Interaction
	theme    *material.Theme
	log      *slog.Logger
	ctx      context.Context
	artworks []string
	index    int
	// exportDir receives the PNG files saved with the S key.
	exportDir string

	win     *app.Window
	ops     op.Ops
	image   paint.ImageOp
	dirty   atomic.Bool
	focused bool
	canvas  float32 // side of the canvas box before the view transform
	status  string

	pointerTag bool
	keyTag     bool
}

// NewGUI prepares a window for the session. artworks is the catalog the
// arrow keys browse through.
func NewGUI(ctx context.Context, s *Session, artworks []string, exportDir string, logger *slog.Logger) *Gui {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gui{
		session:   s,
		input:     NewInteraction(s),
		theme:     material.NewTheme(gofont.Collection()),
		log:       logger,
		ctx:       ctx,
		artworks:  artworks,
		exportDir: exportDir,
	}
	g.index = indexOf(artworks, s.Artwork())
	g.dirty.Store(true)
	return g
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

// Run opens the window and processes its events until it is closed.
func (g *Gui) Run() error {
	g.win = app.NewWindow(app.Title("Coloring"), app.Size(unit.Dp(windowW), unit.Dp(windowH)))

	g.session.OnChange(func() {
		g.dirty.Store(true)
		g.win.Invalidate()
	})
	g.session.View().OnChange(func(f32.Affine2D) {
		g.win.Invalidate()
	})
	if g.session.State() == Idle && len(g.artworks) > 0 {
		g.session.Select(g.ctx, g.artworks[g.index])
	}

	for e := range g.win.Events() {
		switch e := e.(type) {
		case system.FrameEvent:
			gtx := layout.NewContext(&g.ops, e)
			g.handleKeys(gtx)
			g.handlePointer(gtx)
			g.layout(gtx)
			e.Frame(gtx.Ops)
		case system.DestroyEvent:
			g.input.Up()
			return e.Err
		}
	}
	return nil
}

func (g *Gui) handlePointer(gtx C) {
	for _, ev := range gtx.Events(&g.pointerTag) {
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		pe := PointerEvent{X: float64(e.Position.X), Y: float64(e.Position.Y), HasPos: true}
		if e.Source == pointer.Touch {
			pe = PointerEvent{Touches: []Touch{{X: pe.X, Y: pe.Y}}}
		}
		rect := g.session.View().ScreenRect(g.canvas, g.canvas)

		switch e.Type {
		case pointer.Press:
			g.input.Down(pe, rect)
		case pointer.Drag:
			g.input.Move(pe, rect)
		case pointer.Release, pointer.Cancel, pointer.Leave:
			g.input.Up()
		}
	}
}

func (g *Gui) handleKeys(gtx C) {
	for _, ev := range gtx.Events(&g.keyTag) {
		e, ok := ev.(key.Event)
		if !ok || e.State != key.Press {
			continue
		}
		view := g.session.View()
		brush := g.session.Brush()

		switch {
		case e.Name == "Z" && e.Modifiers.Contain(key.ModShortcut):
			g.session.Undo()
		case e.Name == "B":
			g.input.SetTool(ToolBrush)
		case e.Name == "P":
			if !g.input.SetTool(ToolPan) {
				g.status = "zoom in to pan"
			}
		case e.Name == "+" || e.Name == "=":
			view.ZoomIn()
		case e.Name == "-":
			view.ZoomOut()
		case e.Name == "C":
			g.session.Clear()
		case e.Name == "R":
			g.session.ReloadLineArt(g.ctx)
		case e.Name == "S":
			g.export()
		case e.Name == "[":
			brush.SetSize(brush.Size - 1)
			g.session.SetBrush(brush)
		case e.Name == "]":
			brush.SetSize(brush.Size + 1)
			g.session.SetBrush(brush)
		case e.Name == "H":
			brush.SetHardness((brush.Hardness + HardnessStep) % (MaxHardness + HardnessStep))
			g.session.SetBrush(brush)
		case e.Name == key.NameLeftArrow:
			g.step(-1)
		case e.Name == key.NameRightArrow:
			g.step(1)
		case e.Name == key.NameEscape:
			g.win.Perform(system.ActionClose)
		}
		g.win.Invalidate()
	}
}

// step selects the artwork d positions away in the catalog.
func (g *Gui) step(d int) {
	if len(g.artworks) == 0 {
		return
	}
	g.input.Up()
	g.index = (g.index + d + len(g.artworks)) % len(g.artworks)
	g.session.Select(g.ctx, g.artworks[g.index])
}

func (g *Gui) export() {
	data, err := g.session.RenderFinalArtwork()
	if err != nil {
		g.status = err.Error()
		return
	}
	path := filepath.Join(g.exportDir, ExportName(time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		g.log.Error("could not export the artwork", "path", path, "error", err)
		g.status = "export failed"
		return
	}
	g.log.Info("artwork exported", "path", path)
	g.status = "saved " + filepath.Base(path)
}

func (g *Gui) layout(gtx C) D {
	paint.Fill(gtx.Ops, backgroundColor)

	size := gtx.Constraints.Max
	g.canvas = float32(size.X)
	if size.Y < size.X {
		g.canvas = float32(size.Y)
	}

	if g.dirty.Swap(false) {
		g.image = paint.NewImageOp(g.session.Composite())
	}

	// The whole window listens to the pointer: positions stay in window
	// coordinates and are mapped through the view's screen rectangle.
	area := clip.Rect{Max: size}.Push(gtx.Ops)
	pointer.InputOp{
		Tag:   &g.pointerTag,
		Grab:  g.input.Active(),
		Types: pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Leave,
	}.Add(gtx.Ops)
	key.InputOp{Tag: &g.keyTag}.Add(gtx.Ops)
	if !g.focused {
		key.FocusOp{Tag: &g.keyTag}.Add(gtx.Ops)
		g.focused = true
	}

	scale := g.canvas / Size
	tr := op.Affine(g.session.View().Affine()).Push(gtx.Ops)
	fit := op.Affine(f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(scale, scale))).Push(gtx.Ops)
	img := clip.Rect{Max: image.Pt(Size, Size)}.Push(gtx.Ops)
	g.image.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	img.Pop()
	fit.Pop()
	tr.Pop()

	g.layoutStatus(gtx)
	area.Pop()

	return D{Size: size}
}

// layoutStatus draws a one line summary of the session in the top-left corner.
func (g *Gui) layoutStatus(gtx C) {
	brush := g.session.Brush()
	view := g.session.View()
	line := fmt.Sprintf("%s  [%s]  %s  %s  %s  size %.0f  hardness %d",
		DisplayLabel(g.session.Artwork()), g.session.State(), view.ZoomPercent(),
		g.input.Tool(), utils.RGBAToHex(brush.Color), brush.Size, brush.Hardness)
	if g.status != "" {
		line += "  " + g.status
	}

	macro := op.Record(gtx.Ops)
	gtx.Constraints.Min = image.Point{}
	dims := material.Body1(g.theme, line).Layout(gtx)
	call := macro.Stop()

	bg := clip.Rect{Max: dims.Size}.Push(gtx.Ops)
	paint.ColorOp{Color: statusColor}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	bg.Pop()
	call.Add(gtx.Ops)
}
