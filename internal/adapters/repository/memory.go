package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/stellaremu/internal/domain/track"
	"github.com/okian/stellaremu/pkg/metrics"
)

// MemoryStore keeps encoded records in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	tracks      map[string][]byte
	runs        map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.tracks = make(map[string][]byte)
	s.runs = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) SaveTrack(_ context.Context, t *track.Track) error {
	defer observe("save_track", time.Now())

	payload, err := EncodeTrack(t)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.tracks[t.Name] = payload
	metrics.UpdateRepositoryRecords("tracks", len(s.tracks))
	return nil
}

func (s *MemoryStore) GetTrack(_ context.Context, name string) (*track.Track, error) {
	defer observe("get_track", time.Now())

	s.mu.RLock()
	payload, ok := s.tracks[name]
	initialized := s.initialized
	s.mu.RUnlock()

	if !initialized {
		return nil, ErrNotInitialized
	}
	if !ok {
		return nil, fmt.Errorf("track %q: %w", name, ErrNotFound)
	}
	return DecodeTrack(payload)
}

func (s *MemoryStore) ListTracks(_ context.Context) ([]*track.Track, error) {
	defer observe("list_tracks", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	out := make([]*track.Track, 0, len(s.tracks))
	for name, payload := range s.tracks {
		t, err := DecodeTrack(payload)
		if err != nil {
			return nil, fmt.Errorf("decode track %s: %w", name, err)
		}
		out = append(out, t)
	}
	sortTracks(out)
	return out, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	defer observe("save_run", time.Now())

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = payload
	metrics.UpdateRepositoryRecords("runs", len(s.runs))
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, error) {
	defer observe("get_run", time.Now())

	s.mu.RLock()
	payload, ok := s.runs[id]
	initialized := s.initialized
	s.mu.RUnlock()

	if !initialized {
		return Run{}, ErrNotInitialized
	}
	if !ok {
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return DecodeRun(payload)
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
