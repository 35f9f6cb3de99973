package coloring

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jeana-hines/coloring-app-aws/store"
)

// progressKeyPrefix namespaces persisted color layers inside the store.
const progressKeyPrefix = "progress:"

// ProgressKey returns the store key under which the progress of an artwork is kept.
func ProgressKey(artworkID string) string {
	return progressKeyPrefix + artworkID
}

// Progress bridges the color layer with durable storage.
// Writes are handed to a background writer and never block the caller;
// pending writes for the same artwork are coalesced, the latest one winning.
// Storage failures are logged and swallowed.
type Progress struct {
	store store.Store
	log   *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string][]byte
	order   []string
	writing bool
	closed  bool
	wake    chan struct{}
	done    chan struct{}

	// inflight is the snapshot handed to the store and not yet committed.
	inflightKey  string
	inflightData []byte
}

// NewProgress starts a persistence bridge writing into st.
func NewProgress(st store.Store, logger *slog.Logger) *Progress {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Progress{
		store:   st,
		log:     logger,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Save schedules the snapshot of an artwork's color layer to be stored.
func (p *Progress) Save(artworkID string, snapshot []byte) {
	if artworkID == "" || len(snapshot) == 0 {
		return
	}
	key := ProgressKey(artworkID)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.write(key, snapshot)
		return
	}
	if _, ok := p.pending[key]; !ok {
		p.order = append(p.order, key)
	}
	p.pending[key] = snapshot
	select {
	case p.wake <- struct{}{}:
	default:
	}
	p.mu.Unlock()
}

// Load returns the stored snapshot of an artwork. The second return value
// is false when nothing was saved or the store could not be read.
func (p *Progress) Load(artworkID string) ([]byte, bool) {
	key := ProgressKey(artworkID)

	p.mu.Lock()
	data, ok := p.pending[key]
	if !ok && p.writing && p.inflightKey == key {
		data, ok = p.inflightData, true
	}
	p.mu.Unlock()
	if ok {
		return data, true
	}

	data, err := p.store.Get(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, false
	case err != nil:
		p.log.Error("could not load saved progress", "artwork", artworkID, "error", err)
		return nil, false
	case len(data) == 0:
		return nil, false
	}
	return data, true
}

// Flush blocks until every scheduled write has been attempted.
func (p *Progress) Flush() {
	p.mu.Lock()
	for len(p.pending) > 0 || p.writing {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Close flushes the pending writes and stops the background writer.
// Saves issued after Close are written synchronously.
func (p *Progress) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.wake)
	p.mu.Unlock()

	<-p.done
}

func (p *Progress) run() {
	defer close(p.done)
	for range p.wake {
		p.drain()
	}
	p.drain()
}

// drain writes the pending snapshots in the order their keys were first scheduled.
func (p *Progress) drain() {
	for {
		p.mu.Lock()
		if len(p.order) == 0 {
			p.writing = false
			p.inflightKey, p.inflightData = "", nil
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}
		key := p.order[0]
		p.order = p.order[1:]
		data := p.pending[key]
		delete(p.pending, key)
		p.writing = true
		p.inflightKey, p.inflightData = key, data
		p.mu.Unlock()

		p.write(key, data)
	}
}

func (p *Progress) write(key string, data []byte) {
	if err := p.store.Set(key, data); err != nil {
		p.log.Warn("could not save progress", "key", key, "error", err)
	}
}
