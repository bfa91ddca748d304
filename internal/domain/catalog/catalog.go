// Package catalog holds the per-mass ground truth used for direct
// interpolation and implements the hierarchical nearest-neighbour
// interpolation (HNNI) over the (initial mass, progress coordinate) grid.
package catalog

import (
	"fmt"
	"slices"

	"github.com/okian/stellaremu/internal/domain/track"
)

// Entry is one catalog track: its progress coordinate and any number of
// row-aligned target variables.
type Entry struct {
	Mass    float64
	S       []float64
	Targets map[string][]float64
}

// Catalog maps initial mass to an Entry. It is read-only after
// construction and safe for concurrent queries.
type Catalog struct {
	entries map[float64]Entry
	masses  []float64
}

// New builds a Catalog from entries.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[float64]Entry, len(entries))}
	for _, e := range entries {
		if _, dup := c.entries[e.Mass]; dup {
			return nil, fmt.Errorf("mass %g: %w", e.Mass, ErrDuplicateMass)
		}
		if len(e.S) == 0 {
			return nil, fmt.Errorf("mass %g has no progress samples: %w", e.Mass, track.ErrMalformedTrack)
		}
		targets := make(map[string][]float64, len(e.Targets))
		for name, vals := range e.Targets {
			if len(vals) != len(e.S) {
				return nil, fmt.Errorf("mass %g target %q has %d rows, want %d: %w",
					e.Mass, name, len(vals), len(e.S), track.ErrMalformedTrack)
			}
			targets[name] = slices.Clone(vals)
		}
		c.entries[e.Mass] = Entry{Mass: e.Mass, S: slices.Clone(e.S), Targets: targets}
		c.masses = append(c.masses, e.Mass)
	}
	slices.Sort(c.masses)
	return c, nil
}

// FromTracks builds a Catalog from prepared tracks, i.e. tracks carrying
// the s column. Each listed target column is copied into the catalog.
func FromTracks(tracks []*track.Track, targets ...string) (*Catalog, error) {
	entries := make([]Entry, 0, len(tracks))
	for _, t := range tracks {
		s, err := t.Column(track.ColS)
		if err != nil {
			return nil, err
		}
		e := Entry{Mass: t.InitialMass, S: s, Targets: make(map[string][]float64, len(targets))}
		for _, name := range targets {
			col, err := t.Column(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMissingTarget, err)
			}
			e.Targets[name] = col
		}
		entries = append(entries, e)
	}
	return New(entries...)
}

// Masses returns the catalog masses in ascending order.
func (c *Catalog) Masses() []float64 {
	return slices.Clone(c.masses)
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	return len(c.masses)
}

// Entry returns the catalog entry for an exact mass.
func (c *Catalog) Entry(mass float64) (Entry, bool) {
	e, ok := c.entries[mass]
	return e, ok
}

// Targets returns the target names shared by every entry.
func (c *Catalog) Targets() []string {
	if len(c.masses) == 0 {
		return nil
	}
	var out []string
	for name := range c.entries[c.masses[0]].Targets {
		shared := true
		for _, m := range c.masses[1:] {
			if _, ok := c.entries[m].Targets[name]; !ok {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
