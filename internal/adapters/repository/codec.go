package repository

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/stellaremu/internal/domain/track"
)

// EncodeTrack serializes a track payload.
func EncodeTrack(t *track.Track) ([]byte, error) {
	if t == nil || t.Name == "" {
		return nil, fmt.Errorf("%w: track needs a name", ErrInvalidRecord)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// DecodeTrack parses and validates a track payload.
func DecodeTrack(data []byte) (*track.Track, error) {
	var t track.Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// EncodeRun serializes a run payload.
func EncodeRun(run Run) ([]byte, error) {
	if run.ID == "" {
		return nil, fmt.Errorf("%w: run needs an id", ErrInvalidRecord)
	}
	return json.Marshal(run)
}

// DecodeRun parses a run payload and rebuilds its per-time index.
func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	if run.Result != nil {
		run.Result.Reindex()
	}
	return run, nil
}

func sortTracks(ts []*track.Track) {
	slices.SortFunc(ts, func(a, b *track.Track) int {
		switch {
		case a.InitialMass < b.InitialMass:
			return -1
		case a.InitialMass > b.InitialMass:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}
