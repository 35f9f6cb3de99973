package coloring

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, makeLineArt(color.NRGBA{R: 0xff, A: 0xff})), 0o644))

	s, err := NewSession(Options{Loader: ResourceLoader{Base: dir}, Logger: discardLogger()})
	require.NoError(t, err)
	selectAndWait(t, s, "cat.png")
	require.Equal(t, Ready, s.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchLineArt(ctx, s, dir) }()
	// give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// other files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dog.png"), encodePNG(t, image.NewGray(image.Rect(0, 0, 4, 4))), 0o644))

	require.NoError(t, os.WriteFile(path, encodePNG(t, makeLineArt(color.NRGBA{G: 0xff, A: 0xff})), 0o644))
	assert.Eventually(t, func() bool {
		return s.LineArtLayer().NRGBAAt(20, 20) == color.NRGBA{G: 0xff, A: 0xff}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	s.Wait()
	assert.Equal(t, 1, s.HistoryLen())
}

func TestWatch_MissingDir(t *testing.T) {
	s, err := NewSession(Options{Loader: staticLoader(nil), Logger: discardLogger()})
	require.NoError(t, err)
	err = WatchLineArt(context.Background(), s, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
