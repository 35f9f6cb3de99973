package coloring

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"gioui.org/f32"
	"github.com/jeana-hines/coloring-app-aws/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing image")

// makeLineArt returns a transparent drawing with a black frame and a marker
// pixel of the given color at (20, 20).
func makeLineArt(marker color.NRGBA) *image.NRGBA {
	img := NewRaster()
	for i := 0; i < Size; i++ {
		for _, p := range []image.Point{{i, 0}, {i, Size - 1}, {0, i}, {Size - 1, i}} {
			img.SetNRGBA(p.X, p.Y, color.NRGBA{A: 0xff})
		}
	}
	img.SetNRGBA(20, 20, marker)
	return img
}

func staticLoader(images map[string]image.Image) Loader {
	return LoaderFunc(func(_ context.Context, id string) (image.Image, error) {
		img, ok := images[id]
		if !ok {
			return nil, errMissing
		}
		return img, nil
	})
}

func newTestSession(t *testing.T, loader Loader, progress *Progress) *Session {
	t.Helper()
	s, err := NewSession(Options{
		Loader:   loader,
		Progress: progress,
		Base:     "/colorapp2/images/coloring/",
		Logger:   discardLogger(),
	})
	require.NoError(t, err)
	return s
}

func selectAndWait(t *testing.T, s *Session, id string) {
	t.Helper()
	s.Select(context.Background(), id)
	s.Wait()
}

func drawStroke(t *testing.T, s *Session, from, to Point) {
	t.Helper()
	require.True(t, s.BeginStroke(from.X, from.Y))
	s.ContinueStroke(to.X, to.Y)
	s.EndStroke()
}

func whiteRaster() *image.NRGBA {
	r := NewRaster()
	FillWhite(r)
	return r
}

func TestSession_StateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading line art", LoadingLineArt.String())
	assert.Equal(t, "loading progress", LoadingProgressOrInit.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "load failed", LoadFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSession_RequiresLoader(t *testing.T) {
	_, err := NewSession(Options{})
	assert.Error(t, err)

	_, err = NewSession(Options{
		Loader:  staticLoader(nil),
		LineArt: LineArtOptions{Blend: "dodge"},
	})
	assert.Error(t, err)

	_, err = NewSession(Options{
		Loader:  staticLoader(nil),
		LineArt: LineArtOptions{Composite: "under"},
	})
	assert.Error(t, err)
}

func TestSession_NotReadyIsNoop(t *testing.T) {
	s := newTestSession(t, staticLoader(nil), nil)
	assert.Equal(t, Idle, s.State())

	assert.False(t, s.BeginStroke(10, 10))
	s.ContinueStroke(20, 20)
	s.EndStroke()
	assert.False(t, s.Undo())
	assert.False(t, s.Clear())
	assert.False(t, s.CanUndo())
	assert.False(t, s.ReloadLineArt(context.Background()))
	assert.Equal(t, 0, s.HistoryLen())

	_, err := s.RenderFinalArtwork()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, NewRaster().Pix, s.ColorLayer().Pix)
}

func TestSession_SelectWithoutProgress(t *testing.T) {
	art := makeLineArt(color.NRGBA{R: 0xff, A: 0xff})
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": art}), nil)

	selectAndWait(t, s, "cat.png")
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, "cat.png", s.Artwork())
	assert.Equal(t, 1, s.HistoryLen())
	assert.False(t, s.CanUndo())
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
	assert.Equal(t, art.Pix, s.LineArtLayer().Pix)
}

func TestSession_UndoRoundTrip(t *testing.T) {
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), nil)
	selectAndWait(t, s, "cat.png")
	initial := s.ColorLayer()

	brushes := []Brush{
		{Color: color.NRGBA{R: 0xff, A: 0xff}, Size: 12, Hardness: 100},
		{Color: color.NRGBA{G: 0xff, A: 0xff}, Size: 30, Hardness: 25},
		{Color: color.NRGBA{B: 0xff, A: 0xff}, Size: 5, Hardness: 0},
	}
	for i, b := range brushes {
		s.SetBrush(b)
		drawStroke(t, s, Point{100, float64(100 + 50*i)}, Point{600, float64(300 + 50*i)})
	}
	assert.Equal(t, 4, s.HistoryLen())
	assert.NotEqual(t, initial.Pix, s.ColorLayer().Pix)

	for s.CanUndo() {
		require.True(t, s.Undo())
	}
	assert.Equal(t, 1, s.HistoryLen())
	assert.False(t, s.Undo())
	assert.Equal(t, initial.Pix, s.ColorLayer().Pix)
}

func TestSession_HistoryBounded(t *testing.T) {
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), nil)
	selectAndWait(t, s, "cat.png")
	s.SetBrush(Brush{Color: color.NRGBA{A: 0xff}, Size: 4, Hardness: 100})

	for i := 0; i < 51; i++ {
		x := float64(10 + 15*i)
		drawStroke(t, s, Point{x, 10}, Point{x, 20})
		assert.LessOrEqual(t, s.HistoryLen(), DefaultHistorySize)
	}
	assert.Equal(t, DefaultHistorySize, s.HistoryLen())

	for s.CanUndo() {
		s.Undo()
	}
	layer := s.ColorLayer()
	// every state older than the second stroke was evicted.
	assert.NotEqual(t, whiteRaster().Pix, layer.Pix)
	assert.Equal(t, color.NRGBA{A: 0xff}, layer.NRGBAAt(10, 15))
	assert.Equal(t, color.NRGBA{A: 0xff}, layer.NRGBAAt(25, 15))
	assert.Equal(t, white, layer.NRGBAAt(40, 15))
}

func TestSession_ClearThenUndo(t *testing.T) {
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), nil)
	selectAndWait(t, s, "cat.png")

	drawStroke(t, s, Point{50, 50}, Point{400, 400})
	before := s.ColorLayer()

	require.True(t, s.Clear())
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
	assert.Equal(t, 3, s.HistoryLen())

	require.True(t, s.Undo())
	assert.Equal(t, before.Pix, s.ColorLayer().Pix)
}

func TestSession_LoadFailed(t *testing.T) {
	s := newTestSession(t, staticLoader(nil), nil)
	selectAndWait(t, s, "ghost.png")

	assert.Equal(t, LoadFailed, s.State())
	assert.Equal(t, 0, s.HistoryLen())
	assert.Equal(t, placeholderFill, s.LineArtLayer().NRGBAAt(0, 0))
	assert.Equal(t, NewRaster().Pix, s.ColorLayer().Pix)
	assert.False(t, s.BeginStroke(1, 1))
	assert.False(t, s.Undo())

	var ink bool
	art := s.LineArtLayer()
	for x := 0; x < Size && !ink; x++ {
		ink = art.NRGBAAt(x, Size/2-placeholderGap-4) == placeholderInk
	}
	assert.True(t, ink, "the error message should be drawn")
}

func TestSession_SwitchResetsViewAndHistory(t *testing.T) {
	images := map[string]image.Image{
		"cat.png": makeLineArt(color.NRGBA{R: 0xff, A: 0xff}),
		"dog.png": makeLineArt(color.NRGBA{B: 0xff, A: 0xff}),
	}
	s := newTestSession(t, staticLoader(images), nil)
	selectAndWait(t, s, "cat.png")

	s.View().ZoomIn()
	s.View().PanBy(40, 25)
	drawStroke(t, s, Point{10, 10}, Point{90, 90})
	require.Equal(t, 2, s.HistoryLen())

	selectAndWait(t, s, "dog.png")
	assert.Equal(t, "dog.png", s.Artwork())
	assert.Equal(t, float32(1), s.View().Zoom())
	assert.Equal(t, f32.Point{}, s.View().Pan())
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
	assert.Equal(t, images["dog.png"].(*image.NRGBA).Pix, s.LineArtLayer().Pix)
}

type tagKey struct{}

// gatedLoader holds each load until the gate of its tag is closed.
// The tag travels in the load context.
type gatedLoader struct {
	gates  map[string]chan struct{}
	images map[string]image.Image
}

func (g *gatedLoader) Load(ctx context.Context, _ string) (image.Image, error) {
	tag := ctx.Value(tagKey{}).(string)
	<-g.gates[tag]
	return g.images[tag], nil
}

func TestSession_StaleLoadsAreDiscarded(t *testing.T) {
	loader := &gatedLoader{
		gates: map[string]chan struct{}{
			"a1": make(chan struct{}),
			"b":  make(chan struct{}),
			"a2": make(chan struct{}),
		},
		images: map[string]image.Image{
			"a1": makeLineArt(color.NRGBA{R: 1, A: 0xff}),
			"b":  makeLineArt(color.NRGBA{R: 2, A: 0xff}),
			"a2": makeLineArt(color.NRGBA{R: 3, A: 0xff}),
		},
	}
	s := newTestSession(t, loader, nil)
	tagged := func(tag string) context.Context {
		return context.WithValue(context.Background(), tagKey{}, tag)
	}

	s.Select(tagged("a1"), "A")
	s.Select(tagged("b"), "B")
	s.Select(tagged("a2"), "A")
	assert.Equal(t, LoadingLineArt, s.State())

	close(loader.gates["a2"])
	require.Eventually(t, func() bool { return s.State() == Ready }, 5*time.Second, 5*time.Millisecond)

	close(loader.gates["a1"])
	close(loader.gates["b"])
	s.Wait()

	assert.Equal(t, Ready, s.State())
	assert.Equal(t, "A", s.Artwork())
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, color.NRGBA{R: 3, A: 0xff}, s.LineArtLayer().NRGBAAt(20, 20))
}

// blockingStore holds reads of one key until release is closed.
type blockingStore struct {
	store.Store

	key     string
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) Get(key string) ([]byte, error) {
	if key == s.key {
		close(s.started)
		<-s.release
	}
	return s.Store.Get(key)
}

func TestSession_StaleProgressIsDiscarded(t *testing.T) {
	saved := NewRaster()
	FillWhite(saved)
	Stamp(saved, 512, 512, Brush{Color: color.NRGBA{R: 0xff, A: 0xff}, Size: 40, Hardness: 100})
	snap, err := EncodeSnapshot(saved)
	require.NoError(t, err)

	st := &blockingStore{
		Store:   memStore(t),
		key:     ProgressKey("A"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	require.NoError(t, st.Store.Set(ProgressKey("A"), snap))

	progress := NewProgress(st, discardLogger())
	defer progress.Close()
	s := newTestSession(t, staticLoader(map[string]image.Image{
		"A": makeLineArt(color.NRGBA{R: 1, A: 0xff}),
		"B": makeLineArt(color.NRGBA{R: 2, A: 0xff}),
	}), progress)

	s.Select(context.Background(), "A")
	select {
	case <-st.started:
	case <-time.After(5 * time.Second):
		t.Fatal("saved progress of A was never read")
	}
	assert.Equal(t, LoadingProgressOrInit, s.State())

	s.Select(context.Background(), "B")
	require.Eventually(t, func() bool { return s.State() == Ready }, 5*time.Second, 5*time.Millisecond)

	close(st.release)
	s.Wait()

	assert.Equal(t, Ready, s.State())
	assert.Equal(t, "B", s.Artwork())
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
	assert.Equal(t, color.NRGBA{R: 2, A: 0xff}, s.LineArtLayer().NRGBAAt(20, 20))
}

func TestSession_ReloadLineArt(t *testing.T) {
	var (
		mu      sync.Mutex
		current image.Image = makeLineArt(color.NRGBA{R: 0xff, A: 0xff})
		fail    bool
	)
	loader := LoaderFunc(func(context.Context, string) (image.Image, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errMissing
		}
		return current, nil
	})
	s := newTestSession(t, loader, nil)
	selectAndWait(t, s, "cat.png")
	drawStroke(t, s, Point{30, 30}, Point{300, 30})
	colorBefore := s.ColorLayer()

	mu.Lock()
	current = makeLineArt(color.NRGBA{G: 0xff, A: 0xff})
	mu.Unlock()
	require.True(t, s.ReloadLineArt(context.Background()))
	s.Wait()

	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, s.LineArtLayer().NRGBAAt(20, 20))
	assert.Equal(t, colorBefore.Pix, s.ColorLayer().Pix)
	assert.Equal(t, 2, s.HistoryLen())
	assert.Equal(t, Ready, s.State())

	mu.Lock()
	fail = true
	mu.Unlock()
	require.True(t, s.ReloadLineArt(context.Background()))
	s.Wait()
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, s.LineArtLayer().NRGBAAt(20, 20))
}

func TestSession_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewDir(dir)
	require.NoError(t, err)
	loader := staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{A: 0xff})})

	progress := NewProgress(st, discardLogger())
	s := newTestSession(t, loader, progress)
	selectAndWait(t, s, "cat.png")
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
	assert.Equal(t, 1, s.HistoryLen())

	s.SetBrush(Brush{Color: color.NRGBA{R: 0x20, G: 0x80, B: 0xc0, A: 0xff}, Size: 20, Hardness: 50})
	drawStroke(t, s, Point{200, 200}, Point{700, 500})
	assert.Equal(t, 2, s.HistoryLen())
	s.Close()
	progress.Close()

	initial, err := EncodeSnapshot(whiteRaster())
	require.NoError(t, err)
	saved, err := st.Get(ProgressKey("cat.png"))
	require.NoError(t, err)
	assert.NotEqual(t, initial, saved)

	// a fresh session over the same directory restores the saved layer.
	st2, err := store.NewDir(dir)
	require.NoError(t, err)
	progress2 := NewProgress(st2, discardLogger())
	defer progress2.Close()
	s2 := newTestSession(t, loader, progress2)
	selectAndWait(t, s2, "cat.png")

	want, err := DecodeSnapshot(saved)
	require.NoError(t, err)
	assert.Equal(t, Ready, s2.State())
	assert.Equal(t, 1, s2.HistoryLen())
	assert.Equal(t, want.Pix, s2.ColorLayer().Pix)
}

func TestSession_UndoAndClearArePersisted(t *testing.T) {
	st := memStore(t)
	progress := NewProgress(st, discardLogger())
	defer progress.Close()
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), progress)
	selectAndWait(t, s, "cat.png")

	drawStroke(t, s, Point{10, 10}, Point{50, 50})
	stroked, err := EncodeSnapshot(s.ColorLayer())
	require.NoError(t, err)

	s.Clear()
	progress.Flush()
	saved, err := st.Get(ProgressKey("cat.png"))
	require.NoError(t, err)
	cleared, err := EncodeSnapshot(whiteRaster())
	require.NoError(t, err)
	assert.Equal(t, cleared, saved)

	s.Undo()
	progress.Flush()
	saved, err = st.Get(ProgressKey("cat.png"))
	require.NoError(t, err)
	assert.Equal(t, stroked, saved)
}

func TestSession_UnreadableProgressFallsBackToWhite(t *testing.T) {
	st := memStore(t)
	require.NoError(t, st.Set(ProgressKey("cat.png"), []byte("garbage")))
	progress := NewProgress(st, discardLogger())
	defer progress.Close()

	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), progress)
	selectAndWait(t, s, "cat.png")
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, whiteRaster().Pix, s.ColorLayer().Pix)
}

func TestSession_OnChange(t *testing.T) {
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), nil)
	var (
		mu    sync.Mutex
		calls int
	)
	s.OnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	selectAndWait(t, s, "cat.png")

	mu.Lock()
	defer mu.Unlock()
	// the reset, the line art and the initial color layer.
	assert.Equal(t, 3, calls)
}

func TestSession_EmptySelectionIsIdle(t *testing.T) {
	s := newTestSession(t, staticLoader(map[string]image.Image{"cat.png": makeLineArt(color.NRGBA{})}), nil)
	selectAndWait(t, s, "cat.png")
	selectAndWait(t, s, "")
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.HistoryLen())
}
