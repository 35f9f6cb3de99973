package coloring

// DefaultHistorySize is the number of snapshots kept for undo.
const DefaultHistorySize = 50

// History is a fixed-capacity ring buffer of raster snapshots.
// When full, pushing a new snapshot evicts the oldest one.
type History struct {
	buf   [][]byte
	start int
	n     int
}

// NewHistory creates an empty history holding at most capacity snapshots.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([][]byte, capacity)}
}

// Cap returns the maximum number of snapshots retained.
func (h *History) Cap() int { return len(h.buf) }

// Len returns the number of snapshots currently held.
func (h *History) Len() int { return h.n }

// CanUndo reports whether there is a prior state to go back to.
func (h *History) CanUndo() bool { return h.n > 1 }

// Clear drops every snapshot.
func (h *History) Clear() {
	for i := range h.buf {
		h.buf[i] = nil
	}
	h.start, h.n = 0, 0
}

// Reset discards the history and starts over from a single initial snapshot.
func (h *History) Reset(initial []byte) {
	h.Clear()
	h.Push(initial)
}

// Push appends a snapshot, evicting the oldest entry when the buffer is full.
func (h *History) Push(snapshot []byte) {
	if h.n == len(h.buf) {
		h.buf[h.start] = nil
		h.start = (h.start + 1) % len(h.buf)
		h.n--
	}
	h.buf[(h.start+h.n)%len(h.buf)] = snapshot
	h.n++
}

// Top returns the most recent snapshot.
func (h *History) Top() ([]byte, bool) {
	if h.n == 0 {
		return nil, false
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)], true
}

// Undo drops the most recent snapshot and returns the one preceding it.
// It is a no-op returning false unless at least two snapshots are held.
func (h *History) Undo() ([]byte, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.buf[(h.start+h.n-1)%len(h.buf)] = nil
	h.n--
	return h.Top()
}
