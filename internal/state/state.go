// Package state owns the console's shared view state. One Store exists per
// process, created at startup; readers receive immutable snapshots and
// writers clone-and-swap under a writer mutex, so renders never observe a
// half-applied refresh.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nghyane/mux-console/internal/adminapi"
)

// maxNotices caps the transient notification ring.
const maxNotices = 5

// Notice is a transient, non-blocking notification shown on the dashboard.
type Notice struct {
	ID      string    `json:"id"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

const (
	NoticeInfo  = "info"
	NoticeWarn  = "warn"
	NoticeError = "error"
)

// Snapshot is one immutable view of everything the console renders.
// Fields must not be mutated after install; writers clone first.
type Snapshot struct {
	Accounts []adminapi.Account
	Keys     []adminapi.Key

	// Usage is the global aggregate for the selected window. KeyUsage
	// holds per-key aggregates keyed by key ID.
	Usage    *adminapi.UsagePayload
	KeyUsage map[string]*adminapi.UsagePayload

	WindowMs     int64
	InstalledSeq uint64
	RefreshedAt  time.Time
	Notices      []Notice
}

func (sn *Snapshot) clone() *Snapshot {
	next := *sn
	if sn.Accounts != nil {
		next.Accounts = append([]adminapi.Account(nil), sn.Accounts...)
	}
	if sn.Keys != nil {
		next.Keys = append([]adminapi.Key(nil), sn.Keys...)
	}
	if sn.KeyUsage != nil {
		next.KeyUsage = make(map[string]*adminapi.UsagePayload, len(sn.KeyUsage))
		for k, v := range sn.KeyUsage {
			next.KeyUsage[k] = v
		}
	}
	if sn.Notices != nil {
		next.Notices = append([]Notice(nil), sn.Notices...)
	}
	return &next
}

// Store holds the live snapshot and the fetch sequence counter.
type Store struct {
	writerMu sync.Mutex
	state    atomic.Pointer[Snapshot]
	seq      atomic.Uint64
}

// NewStore creates a store with an empty snapshot for the given window.
func NewStore(windowMs int64) *Store {
	s := &Store{}
	s.state.Store(&Snapshot{WindowMs: windowMs})
	return s
}

// Snapshot returns the current snapshot. Callers must treat it as
// read-only.
func (s *Store) Snapshot() *Snapshot {
	return s.state.Load()
}

// NextSeq reserves the sequence number for a new fetch cycle.
func (s *Store) NextSeq() uint64 {
	return s.seq.Add(1)
}

// Install applies a completed fetch cycle. A cycle that resolved after a
// newer one already installed is discarded and Install reports false, so a
// slow stale response can never overwrite fresher data.
func (s *Store) Install(seq uint64, apply func(next *Snapshot)) bool {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	cur := s.state.Load()
	if seq <= cur.InstalledSeq {
		return false
	}
	next := cur.clone()
	apply(next)
	next.InstalledSeq = seq
	next.RefreshedAt = time.Now()
	s.state.Store(next)
	return true
}

// SetWindow changes the selected lookback window. Usage data from the old
// window is dropped; the next refresh repopulates it.
func (s *Store) SetWindow(windowMs int64) {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	cur := s.state.Load()
	if windowMs <= 0 || windowMs == cur.WindowMs {
		return
	}
	next := cur.clone()
	next.WindowMs = windowMs
	next.Usage = nil
	next.KeyUsage = nil
	s.state.Store(next)
}

// AddNotice appends a transient notification, evicting the oldest past the
// ring cap.
func (s *Store) AddNotice(level, message string) Notice {
	n := Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	}

	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	next := s.state.Load().clone()
	next.Notices = append(next.Notices, n)
	if len(next.Notices) > maxNotices {
		next.Notices = append([]Notice(nil), next.Notices[len(next.Notices)-maxNotices:]...)
	}
	s.state.Store(next)
	return n
}

// DismissNotice removes one notification by ID.
func (s *Store) DismissNotice(id string) {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	cur := s.state.Load()
	kept := make([]Notice, 0, len(cur.Notices))
	for _, n := range cur.Notices {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(cur.Notices) {
		return
	}
	next := cur.clone()
	next.Notices = kept
	s.state.Store(next)
}

// Reset clears everything but keeps the sequence counter so in-flight
// cycles from before the reset still lose to anything installed after it.
func (s *Store) Reset(windowMs int64) {
	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	cur := s.state.Load()
	s.state.Store(&Snapshot{
		WindowMs:     windowMs,
		InstalledSeq: cur.InstalledSeq,
	})
}
