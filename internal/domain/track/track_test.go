package track_test

import (
	"errors"
	"testing"

	"github.com/okian/stellaremu/internal/domain/track"
	. "github.com/smartystreets/goconvey/convey"
)

func newTrack(mass float64, phase, he []float64) *track.Track {
	n := len(phase)
	ramp := func(scale float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = scale * float64(i)
		}
		return out
	}
	t, err := track.New("t", mass, map[string][]float64{
		track.ColPhase:      phase,
		track.ColCenterHe4:  he,
		track.ColLogL:       ramp(0.3),
		track.ColLogTeff:    ramp(-0.4),
		track.ColLogRho:     ramp(0.1),
		track.ColAge:        ramp(1e6),
		track.ColLogCenterT: ramp(0.01),
		track.ColLogG:       ramp(-0.2),
	})
	So(err, ShouldBeNil)
	return t
}

func TestTrackTable(t *testing.T) {
	Convey("Given ragged columns", t, func() {
		_, err := track.New("bad", 1, map[string][]float64{"a": {1, 2}, "b": {1}})

		Convey("Then New rejects them", func() {
			So(errors.Is(err, track.ErrMalformedTrack), ShouldBeTrue)
		})
	})

	Convey("Given a track", t, func() {
		tr := newTrack(1, []float64{0, 0, 2}, []float64{1, 1, 1})

		Convey("When selecting rows", func() {
			out := tr.Select(func(i int) bool { return i != 1 })

			Convey("Then a new table with contiguous rows is returned", func() {
				So(out.Len(), ShouldEqual, 2)
				So(tr.Len(), ShouldEqual, 3)
				l, err := out.Column(track.ColLogL)
				So(err, ShouldBeNil)
				So(l, ShouldResemble, []float64{0, 0.6})
			})
		})

		Convey("When reading a missing column", func() {
			_, err := tr.Column("nope")

			Convey("Then ErrMissingColumn is returned", func() {
				So(errors.Is(err, track.ErrMissingColumn), ShouldBeTrue)
			})
		})

		Convey("When reading a row", func() {
			row := tr.Row(2)

			Convey("Then every column is present", func() {
				So(row[track.ColPhase], ShouldEqual, 2)
				So(len(row), ShouldEqual, len(track.BasicColumns))
			})
		})
	})
}

func TestFilter(t *testing.T) {
	policy := track.DefaultPolicy()
	phases := []float64{-1, 0, 0, 2, 3, 4, 9, 9}
	he := []float64{1, 1, 0.9, 0.5, 0.3, 0.2, 1e-5, 1e-4}

	Convey("Given a low mass track", t, func() {
		tr := newTrack(1, phases, he)
		out, err := track.Filter(tr, policy)

		Convey("Then only the allowed phases survive", func() {
			So(err, ShouldBeNil)
			got, _ := out.Column(track.ColPhase)
			So(got, ShouldResemble, []float64{0, 0, 2, 3, 9, 9})
		})
	})

	Convey("Given an 80 solar mass track", t, func() {
		tr := newTrack(80, []float64{0, 3, 9, 9, 3}, []float64{1, 0.5, 0.2, 1e-4, 1e-5})
		out, err := track.Filter(tr, policy)

		Convey("Then WR rows with exhausted helium are removed", func() {
			So(err, ShouldBeNil)
			gotPhase, _ := out.Column(track.ColPhase)
			gotHe, _ := out.Column(track.ColCenterHe4)
			So(gotPhase, ShouldResemble, []float64{0, 3, 9, 3})
			So(gotHe, ShouldResemble, []float64{1, 0.5, 0.2, 1e-5})
		})
	})

	Convey("Given a 200 solar mass track", t, func() {
		tr := newTrack(200, []float64{0, 3, 9, 9, 3}, []float64{1, 0.5, 0.2, 1e-4, 1e-5})
		out, err := track.Filter(tr, policy)

		Convey("Then every helium exhausted row is removed regardless of phase", func() {
			So(err, ShouldBeNil)
			gotHe, _ := out.Column(track.ColCenterHe4)
			So(gotHe, ShouldResemble, []float64{1, 0.5, 0.2})
		})
	})

	Convey("Given a 112 solar mass track in the gap between windows", t, func() {
		tr := newTrack(112, []float64{0, 9}, []float64{1, 1e-6})
		out, err := track.Filter(tr, policy)

		Convey("Then no trim is applied", func() {
			So(err, ShouldBeNil)
			So(out.Len(), ShouldEqual, 2)
		})
	})

	Convey("Given a track without a phase column", t, func() {
		tr, err := track.New("x", 1, map[string][]float64{track.ColCenterHe4: {1}})
		So(err, ShouldBeNil)
		_, err = track.Filter(tr, policy)

		Convey("Then ErrMissingColumn is returned", func() {
			So(errors.Is(err, track.ErrMissingColumn), ShouldBeTrue)
		})
	})
}

func TestPhaseLabel(t *testing.T) {
	Convey("Given the phase lookup table", t, func() {
		l, ok := track.PhaseLabel(track.PhaseCHeB)
		So(ok, ShouldBeTrue)
		So(l, ShouldEqual, "CHeB")
		_, ok = track.PhaseLabel(7)
		So(ok, ShouldBeFalse)
	})
}
