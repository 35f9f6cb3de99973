package coloring

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jeana-hines/coloring-app-aws/imop"
)

// ErrNotReady is returned by the operations needing a fully loaded artwork.
var ErrNotReady = errors.New("the artwork is not ready")

// State is the loading state of the selected artwork.
type State int

const (
	Idle State = iota
	LoadingLineArt
	LoadingProgressOrInit
	Ready
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingLineArt:
		return "loading line art"
	case LoadingProgressOrInit:
		return "loading progress"
	case Ready:
		return "ready"
	case LoadFailed:
		return "load failed"
	}
	return "unknown"
}

// Options configures a Session.
type Options struct {
	Loader   Loader
	Progress *Progress // nil disables persistence
	History  int       // undo capacity, DefaultHistorySize when zero
	Brush    *Brush    // DefaultBrush when nil
	View     ViewConfig
	LineArt  LineArtOptions
	// Base is the image location shown on the load-failure placeholder.
	Base   string
	Logger *slog.Logger
}

// ticket identifies one artwork selection. A load may only apply its result
// while the session still holds the ticket it was issued with.
type ticket struct {
	artwork string
	gen     uuid.UUID
}

// Session owns the two rasters of the selected artwork together with its
// undo history and drives their loading, drawing and persistence.
// All methods are safe for concurrent use.
type Session struct {
	loader   Loader
	progress *Progress
	log      *slog.Logger
	base     string
	lineOpts LineArtOptions
	blend    *imop.Blend
	comp     *imop.Composite
	view     *View

	mu       sync.Mutex
	state    State
	ticket   ticket
	color    *image.NRGBA
	lineArt  *image.NRGBA
	history  *History
	brush    Brush
	stroking bool
	last     Point
	onChange func()

	loads sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(opts Options) (*Session, error) {
	if opts.Loader == nil {
		return nil, errors.New("a line-art loader is required")
	}
	blend, err := opts.LineArt.blend()
	if err != nil {
		return nil, err
	}
	comp, err := opts.LineArt.composite()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	brush := DefaultBrush()
	if opts.Brush != nil {
		brush = *opts.Brush
	}

	return &Session{
		loader:   opts.Loader,
		progress: opts.Progress,
		log:      logger,
		base:     opts.Base,
		lineOpts: opts.LineArt,
		blend:    blend,
		comp:     comp,
		view:     NewView(opts.View),
		color:    NewRaster(),
		lineArt:  NewRaster(),
		history:  NewHistory(opts.History),
		brush:    brush,
	}, nil
}

// OnChange registers fn to be called whenever a layer or the state changes.
// It is called without the session lock held, possibly from a load goroutine.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns the loading state of the current artwork.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Artwork returns the identifier of the selected artwork.
func (s *Session) Artwork() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket.artwork
}

// View returns the pan and zoom controller of the canvas.
func (s *Session) View() *View { return s.view }

// Brush returns the current brush parameters.
func (s *Session) Brush() Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// SetBrush replaces the brush parameters used by the following stamps.
func (s *Session) SetBrush(b Brush) {
	s.mu.Lock()
	s.brush.SetColor(b.Color)
	s.brush.SetSize(b.Size)
	s.brush.SetHardness(b.Hardness)
	s.mu.Unlock()
}

// Select switches to another artwork. Both layers, the history and the view
// are reset at once; the line art and the saved progress are then loaded in
// the background. An empty identifier leaves the session idle.
func (s *Session) Select(ctx context.Context, artworkID string) {
	t := ticket{artwork: artworkID, gen: uuid.New()}

	s.mu.Lock()
	s.ticket = t
	s.stroking = false
	s.history.Clear()
	ClearRaster(s.color)
	ClearRaster(s.lineArt)
	s.state = LoadingLineArt
	if artworkID == "" {
		s.state = Idle
	}
	s.mu.Unlock()

	s.view.Reset()
	s.changed()
	if artworkID == "" {
		return
	}

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		s.load(ctx, t)
	}()
}

// Wait blocks until every load issued so far has settled.
func (s *Session) Wait() {
	s.loads.Wait()
}

func (s *Session) load(ctx context.Context, t ticket) {
	log := s.log.With("artwork", t.artwork)

	img, err := s.loader.Load(ctx, t.artwork)
	var art *image.NRGBA
	if err == nil {
		art = prepareLineArt(img, s.lineOpts)
	}

	s.mu.Lock()
	if s.ticket != t {
		s.mu.Unlock()
		log.Debug("discarding stale line art")
		return
	}
	if err != nil {
		drawPlaceholder(s.lineArt, t.artwork, s.base)
		s.history.Clear()
		s.state = LoadFailed
		s.mu.Unlock()

		log.Warn("could not load line art", "error", err)
		s.changed()
		return
	}
	copy(s.lineArt.Pix, art.Pix)
	s.state = LoadingProgressOrInit
	s.mu.Unlock()
	s.changed()

	layer, snap := s.initialLayer(t.artwork, log)

	s.mu.Lock()
	if s.ticket != t {
		s.mu.Unlock()
		log.Debug("discarding stale progress")
		return
	}
	copy(s.color.Pix, layer.Pix)
	s.history.Reset(snap)
	s.state = Ready
	s.mu.Unlock()

	log.Info("artwork ready")
	s.changed()
}

// initialLayer returns the saved color layer of the artwork, or a white one
// when nothing usable was saved, together with its snapshot.
func (s *Session) initialLayer(artworkID string, log *slog.Logger) (*image.NRGBA, []byte) {
	if s.progress != nil {
		if data, ok := s.progress.Load(artworkID); ok {
			layer, err := DecodeSnapshot(data)
			if err == nil {
				var snap []byte
				if snap, err = EncodeSnapshot(layer); err == nil {
					return layer, snap
				}
			}
			log.Warn("discarding unreadable saved progress", "error", err)
		}
	}

	layer := NewRaster()
	FillWhite(layer)
	snap, err := EncodeSnapshot(layer)
	if err != nil {
		log.Error("could not capture the initial state", "error", err)
	}
	return layer, snap
}

// ReloadLineArt fetches the current artwork's line art again and redraws
// the line-art layer only. It reports false when the artwork is not ready.
// A failed reload is logged and leaves everything unchanged.
func (s *Session) ReloadLineArt(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return false
	}
	t := s.ticket
	s.mu.Unlock()

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		log := s.log.With("artwork", t.artwork)

		img, err := s.loader.Load(ctx, t.artwork)
		if err != nil {
			log.Warn("could not reload line art", "error", err)
			return
		}
		art := prepareLineArt(img, s.lineOpts)

		s.mu.Lock()
		if s.ticket != t || s.state != Ready {
			s.mu.Unlock()
			return
		}
		copy(s.lineArt.Pix, art.Pix)
		s.mu.Unlock()

		log.Info("line art reloaded")
		s.changed()
	}()
	return true
}

// BeginStroke stamps the brush at the given raster position and starts a
// stroke. It reports false when the artwork is not ready.
func (s *Session) BeginStroke(x, y float64) bool {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return false
	}
	s.stroking = true
	s.last = Point{X: x, Y: y}
	Stamp(s.color, x, y, s.brush)
	s.mu.Unlock()

	s.changed()
	return true
}

// ContinueStroke extends the current stroke to the given raster position.
func (s *Session) ContinueStroke(x, y float64) {
	s.mu.Lock()
	if !s.stroking || s.state != Ready {
		s.mu.Unlock()
		return
	}
	p := Point{X: x, Y: y}
	StrokeTo(s.color, s.last, p, s.brush)
	s.last = p
	s.mu.Unlock()

	s.changed()
}

// EndStroke closes the current stroke: the color layer is captured into the
// history and saved.
func (s *Session) EndStroke() {
	s.mu.Lock()
	if !s.stroking {
		s.mu.Unlock()
		return
	}
	s.stroking = false
	if s.state == Ready {
		s.commit()
	}
	s.mu.Unlock()

	s.changed()
}

// Undo restores the state preceding the last stroke or clear.
// It reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	if s.state != Ready || s.stroking {
		s.mu.Unlock()
		return false
	}
	snap, ok := s.history.Undo()
	if !ok {
		s.mu.Unlock()
		return false
	}
	if err := restoreRaster(s.color, snap); err != nil {
		s.log.Error("could not restore the previous state", "artwork", s.ticket.artwork, "error", err)
	}
	s.save(snap)
	s.mu.Unlock()

	s.changed()
	return true
}

// Clear paints the color layer white. The cleared state is recorded in the
// history so that it can be undone.
func (s *Session) Clear() bool {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return false
	}
	s.stroking = false
	FillWhite(s.color)
	s.commit()
	s.mu.Unlock()

	s.changed()
	return true
}

// commit records the color layer in the history and saves it. Callers hold the lock.
func (s *Session) commit() {
	snap, err := EncodeSnapshot(s.color)
	if err != nil {
		s.log.Error("could not capture the color layer", "artwork", s.ticket.artwork, "error", err)
		return
	}
	s.history.Push(snap)
	s.save(snap)
}

func (s *Session) save(snap []byte) {
	if s.progress != nil {
		s.progress.Save(s.ticket.artwork, snap)
	}
}

// CanUndo reports whether Undo would do anything.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Ready && s.history.CanUndo()
}

// HistoryLen returns the number of snapshots held for undo.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// ColorLayer returns a copy of the color raster.
func (s *Session) ColorLayer() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRaster(s.color)
}

// LineArtLayer returns a copy of the line-art raster.
func (s *Session) LineArtLayer() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRaster(s.lineArt)
}

// Composite returns the color layer flattened beneath the line art, as displayed.
func (s *Session) Composite() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flatten(s.color, s.lineArt, s.comp, s.blend)
}

// Close waits for the pending loads and flushes the saved progress.
func (s *Session) Close() {
	s.Wait()
	if s.progress != nil {
		s.progress.Flush()
	}
}
