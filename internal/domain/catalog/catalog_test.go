package catalog_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/track"
	. "github.com/smartystreets/goconvey/convey"
)

const target = "log_L"

func fixture() *catalog.Catalog {
	c, err := catalog.New(
		catalog.Entry{Mass: 1.0, S: []float64{0, 0.5, 1.0}, Targets: map[string][]float64{target: {10, 20, 30}}},
		catalog.Entry{Mass: 2.0, S: []float64{0, 1.0}, Targets: map[string][]float64{target: {100, 200}}},
	)
	So(err, ShouldBeNil)
	return c
}

func TestInterpolate(t *testing.T) {
	Convey("Given a two track catalog", t, func() {
		c := fixture()

		Convey("When querying between the tracks", func() {
			got, err := c.Interpolate(1.5, 0.5, target)

			Convey("Then it interpolates in s on each track and in log mass between them", func() {
				So(err, ShouldBeNil)
				want := 20 + (150.0-20)/(math.Log10(2)-math.Log10(1))*(math.Log10(1.5)-math.Log10(1))
				So(got, ShouldEqual, want)
				So(got, ShouldAlmostEqual, 96.04512509375031, 1e-9)
			})
		})

		Convey("When querying an exact grid point", func() {
			Convey("Then the stored value is returned exactly", func() {
				for _, tc := range []struct{ m, s, want float64 }{
					{1.0, 0, 10}, {1.0, 0.5, 20}, {1.0, 1.0, 30},
					{2.0, 0, 100}, {2.0, 1.0, 200},
				} {
					got, err := c.Interpolate(tc.m, tc.s, target)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, tc.want)
				}
			})
		})

		Convey("When querying on a single track between samples", func() {
			got, err := c.Interpolate(2.0, 0.25, target)

			Convey("Then only the s step is performed", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 125)
			})
		})

		Convey("When querying the same point twice", func() {
			a, errA := c.Interpolate(1.3, 0.77, target)
			b, errB := c.Interpolate(1.3, 0.77, target)

			Convey("Then the answers are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldEqual, b)
			})
		})

		Convey("When the mass is outside the grid", func() {
			est, err := c.InterpolateDetailed(5.0, 0.5, target)

			Convey("Then the boundary track is used and flagged", func() {
				So(err, ShouldBeNil)
				So(est.Value, ShouldEqual, 150)
				So(est.Clamped, ShouldBeTrue)
				So(est.Mass.Lower, ShouldEqual, 2.0)
			})
		})

		Convey("When the target is absent", func() {
			_, err := c.Interpolate(1.5, 0.5, "log_g")

			Convey("Then ErrMissingTarget is returned", func() {
				So(errors.Is(err, catalog.ErrMissingTarget), ShouldBeTrue)
			})
		})

		Convey("When the query is not finite", func() {
			Convey("Then ErrInvalidQuery is returned", func() {
				for _, q := range [][2]float64{
					{math.NaN(), 0.5}, {1.5, math.NaN()}, {math.Inf(1), 0.5}, {1.5, math.Inf(-1)},
				} {
					got, err := c.Interpolate(q[0], q[1], target)
					So(errors.Is(err, catalog.ErrInvalidQuery), ShouldBeTrue)
					So(math.IsNaN(got), ShouldBeTrue)
				}
			})
		})

		Convey("When interpolating several targets", func() {
			vals, err := c.InterpolateAll(1.0, 0.75, target, target)

			Convey("Then each is evaluated", func() {
				So(err, ShouldBeNil)
				So(vals, ShouldResemble, []float64{25, 25})
			})
		})

		Convey("When sampling a synthetic track", func() {
			out, err := c.Sample(1.0, []float64{0, 0.25, 1}, target)

			Convey("Then values are aligned with the s grid", func() {
				So(err, ShouldBeNil)
				So(out[target], ShouldResemble, []float64{10, 15, 30})
			})
		})

		Convey("Then masses are sorted and targets shared", func() {
			So(c.Masses(), ShouldResemble, []float64{1.0, 2.0})
			So(c.Targets(), ShouldResemble, []string{target})
			So(c.Len(), ShouldEqual, 2)
		})
	})

	Convey("Given a track with duplicate s values", t, func() {
		c, err := catalog.New(catalog.Entry{
			Mass: 1, S: []float64{0, 0.5, 0.5, 1}, Targets: map[string][]float64{target: {0, 7, 9, 10}},
		})
		So(err, ShouldBeNil)

		Convey("Then the first matching row is used", func() {
			got, err := c.Interpolate(1, 0.5, target)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, 7)
		})
	})

	Convey("Given an empty catalog", t, func() {
		c, err := catalog.New()
		So(err, ShouldBeNil)
		_, err = c.Interpolate(1, 0.5, target)

		Convey("Then ErrEmptyCatalog is returned", func() {
			So(errors.Is(err, catalog.ErrEmptyCatalog), ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given duplicate masses", t, func() {
		_, err := catalog.New(
			catalog.Entry{Mass: 1, S: []float64{0, 1}},
			catalog.Entry{Mass: 1, S: []float64{0, 1}},
		)
		So(errors.Is(err, catalog.ErrDuplicateMass), ShouldBeTrue)
	})

	Convey("Given a target not aligned with s", t, func() {
		_, err := catalog.New(catalog.Entry{Mass: 1, S: []float64{0, 1}, Targets: map[string][]float64{target: {1}}})
		So(errors.Is(err, track.ErrMalformedTrack), ShouldBeTrue)
	})

	Convey("Given prepared tracks", t, func() {
		tr, err := track.New("a", 3, map[string][]float64{
			track.ColS:    {0, 1},
			track.ColLogL: {1, 2},
		})
		So(err, ShouldBeNil)

		Convey("When a requested target exists", func() {
			c, err := catalog.FromTracks([]*track.Track{tr}, track.ColLogL)
			So(err, ShouldBeNil)
			e, ok := c.Entry(3)
			So(ok, ShouldBeTrue)
			So(e.Targets[track.ColLogL], ShouldResemble, []float64{1, 2})
		})

		Convey("When a requested target is missing", func() {
			_, err := catalog.FromTracks([]*track.Track{tr}, track.ColLogG)
			So(errors.Is(err, catalog.ErrMissingTarget), ShouldBeTrue)
		})
	})
}

func TestMassIndex(t *testing.T) {
	Convey("Given a mass to identifier table", t, func() {
		idx := catalog.MassIndex{1.0: "00100M", 0.8: "00080M", 2.5: "00250M"}

		So(idx.Masses(), ShouldResemble, []float64{0.8, 1.0, 2.5})
		name, ok := idx.Lookup(1.0)
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, "00100M")
		So(idx.Range(0.9, 3), ShouldResemble, []float64{1.0, 2.5})
	})
}
