package catalog

import "slices"

// MassIndex maps initial masses to track identifiers supplied by an
// external lookup table.
type MassIndex map[float64]string

// Lookup returns the identifier registered for mass.
func (idx MassIndex) Lookup(mass float64) (string, bool) {
	name, ok := idx[mass]
	return name, ok
}

// Masses returns the indexed masses in ascending order.
func (idx MassIndex) Masses() []float64 {
	out := make([]float64, 0, len(idx))
	for m := range idx {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Range returns the masses within [lo, hi], ascending.
func (idx MassIndex) Range(lo, hi float64) []float64 {
	var out []float64
	for _, m := range idx.Masses() {
		if m >= lo && m <= hi {
			out = append(out, m)
		}
	}
	return out
}
