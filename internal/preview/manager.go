// Package preview owns the lifetime of locally held document previews.
//
// A Handle wraps fetched document bytes. Each named slot holds at most one live Handle:
// acquiring a new preview for a slot retires the previous one, and a response that
// arrives after a newer request for the same slot is released instead of being shown.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

var (
	// ErrSuperseded is returned to a caller whose preview arrived after a newer request
	// for the same slot. The fetched bytes have already been released.
	ErrSuperseded = errors.New("preview superseded by a newer request")
	// ErrClosed is returned once the manager has been torn down.
	ErrClosed = errors.New("preview manager closed")
	// ErrReleased is returned when reading a handle that has been released.
	ErrReleased = errors.New("preview handle released")
)

// Fetcher retrieves document bytes for inline display.
type Fetcher interface {
	FetchForPreview(ctx context.Context, id model.DocumentID) (*model.Blob, error)
}

// Handle is a local, releasable reference to fetched document bytes.
type Handle struct {
	id          string
	slot        string
	documentID  model.DocumentID
	filename    string
	contentType string
	owner       *Manager

	mu       sync.Mutex
	data     []byte
	released bool
}

// ID identifies the handle within its manager.
func (h *Handle) ID() string { return h.id }

// Slot is the display slot the handle was acquired for.
func (h *Handle) Slot() string { return h.slot }

// DocumentID is the stored document the bytes came from.
func (h *Handle) DocumentID() model.DocumentID { return h.documentID }

// Filename is the name reported by the store, possibly empty.
func (h *Handle) Filename() string { return h.filename }

// ContentType is the media type reported by the store.
func (h *Handle) ContentType() string { return h.contentType }

// URI is the local address of the preview, analogous to a blob URL.
func (h *Handle) URI() string { return "preview://" + h.slot + "/" + h.id }

// Bytes returns the previewed content, or nil once the handle is released.
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	return h.data
}

// WriteTo copies the previewed content to w.
func (h *Handle) WriteTo(w io.Writer) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return 0, ErrReleased
	}
	n, err := w.Write(h.data)
	return int64(n), err
}

// Released reports whether the handle's memory has been reclaimed.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release returns the handle to its manager. Releasing twice is a no-op.
func (h *Handle) Release() {
	if h == nil || h.owner == nil {
		return
	}
	h.owner.Release(h)
}

// free drops the content. It reports whether this call performed the release and
// whether the handle still held its content when it did.
func (h *Handle) free() (freed, intact bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false, true
	}
	intact = h.data != nil
	clear(h.data)
	h.data = nil
	h.released = true
	return true, intact
}

type slotState struct {
	// seq increases on every request for the slot; a fetch only installs its handle
	// if seq has not moved since the request started.
	seq     uint64
	current *Handle
}

// Manager is the single owner of preview memory.
type Manager struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics

	mu      sync.Mutex
	slots   map[string]*slotState
	handles map[string]*Handle
	closed  bool
}

// NewManager creates a preview manager. reg may be nil to skip metric registration.
func NewManager(fetcher Fetcher, logger *slog.Logger, reg prometheus.Registerer) (*Manager, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("preview fetcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Manager{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "preview_manager")),
		metrics: m,
		slots:   make(map[string]*slotState),
		handles: make(map[string]*Handle),
	}, nil
}

// Acquire fetches a document and installs it as the live handle of slot.
// The slot's previous handle is released as soon as the new request starts.
// If a newer request for the same slot (or a teardown) happens while this fetch is
// in flight, the fetched bytes are released and ErrSuperseded or ErrClosed is returned.
func (m *Manager) Acquire(ctx context.Context, slot string, id model.DocumentID) (*Handle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	st := m.slotLocked(slot)
	st.seq++
	token := st.seq
	if st.current != nil {
		m.releaseLocked(st.current)
	}
	m.mu.Unlock()

	blob, err := m.fetcher.FetchForPreview(ctx, id)
	if err != nil {
		if stale := m.staleErr(st, token, slot, id); stale != nil {
			return nil, stale
		}
		m.metrics.acquires.WithLabelValues("error").Inc()
		return nil, err
	}

	h := &Handle{
		id:          uuid.NewString(),
		slot:        slot,
		documentID:  id,
		filename:    blob.Filename,
		contentType: blob.ContentType,
		owner:       m,
		data:        blob.Data,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if stale := m.staleErrLocked(st, token, slot, id); stale != nil {
		h.free()
		return nil, stale
	}

	st.current = h
	m.handles[h.id] = h
	m.metrics.live.Inc()
	m.metrics.acquires.WithLabelValues("ok").Inc()
	return h, nil
}

func (m *Manager) staleErr(st *slotState, token uint64, slot string, id model.DocumentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleErrLocked(st, token, slot, id)
}

// staleErrLocked reports ErrClosed or ErrSuperseded when the request identified by
// token is no longer the slot's latest. Its outcome, success or failure, is discarded.
func (m *Manager) staleErrLocked(st *slotState, token uint64, slot string, id model.DocumentID) error {
	if !m.closed && st.seq == token {
		return nil
	}
	m.metrics.acquires.WithLabelValues("superseded").Inc()
	m.logger.Debug("discarded stale preview",
		slog.String("slot", slot),
		slog.String("document_id", id.String()),
	)
	if m.closed {
		return ErrClosed
	}
	return ErrSuperseded
}

// Release frees a handle. Releasing an already released handle is a no-op.
// A handle that does not belong to this manager or that lost its content is a defect:
// it is logged and never surfaced to the caller.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(h)
}

func (m *Manager) releaseLocked(h *Handle) {
	if h.owner != m {
		m.logger.Error("release of preview handle not owned by this manager",
			slog.String("handle_id", h.id),
			slog.String("slot", h.slot),
		)
		return
	}
	freed, intact := h.free()
	if !freed {
		return
	}
	if !intact {
		m.logger.Error("released preview handle had no content",
			slog.String("handle_id", h.id),
			slog.String("slot", h.slot),
		)
	}
	if _, ok := m.handles[h.id]; ok {
		delete(m.handles, h.id)
		m.metrics.live.Dec()
	}
	if st := m.slots[h.slot]; st != nil && st.current == h {
		st.current = nil
	}
}

// ReleaseSlot releases the slot's live handle and discards any fetch still in flight
// for it. Use it when the consumer of a slot goes away.
func (m *Manager) ReleaseSlot(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.slots[slot]
	if !ok {
		return
	}
	st.seq++
	if st.current != nil {
		m.releaseLocked(st.current)
	}
	delete(m.slots, slot)
}

// Current returns the live handle of slot, if any.
func (m *Manager) Current(slot string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.slots[slot]
	if !ok || st.current == nil {
		return nil, false
	}
	return st.current, true
}

// Lookup resolves a live handle by its ID.
func (m *Manager) Lookup(handleID string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[handleID]
	return h, ok
}

// Live returns the number of live handles.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Close releases every live handle and rejects further acquisitions.
// Fetches still in flight release their bytes when they complete.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, h := range m.handles {
		m.releaseLocked(h)
	}
	m.slots = make(map[string]*slotState)
}

func (m *Manager) slotLocked(slot string) *slotState {
	st, ok := m.slots[slot]
	if !ok {
		st = &slotState{}
		m.slots[slot] = st
	}
	return st
}
