package emulator_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/stellaremu/internal/domain/emulator"
	. "github.com/smartystreets/goconvey/convey"
)

func constant(v float64) emulator.Predictor {
	return emulator.PredictorFunc(func([]float64) ([]float64, error) { return []float64{v}, nil })
}

// stubModels: ZAMS at 10^6 yr, TACHeB at 10^7 yr, s = t_scaled,
// observables = (s, log M, s + log M).
func stubModels() emulator.Models {
	return emulator.Models{
		AgeStart: constant(6),
		AgeEnd:   constant(7),
		Progress: emulator.PredictorFunc(func(in []float64) ([]float64, error) {
			return []float64{in[0]}, nil
		}),
		Observables: emulator.PredictorFunc(func(in []float64) ([]float64, error) {
			return []float64{in[0], in[1], in[0] + in[1]}, nil
		}),
	}
}

func TestScaleAge(t *testing.T) {
	Convey("Given a log age window of [2, 4]", t, func() {
		Convey("Then the midpoint and both ends map to 0.5, 0 and 1", func() {
			v, err := emulator.ScaleAge(2, 4, 3)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.5)
			v, err = emulator.ScaleAge(2, 4, 2)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.0)
			v, err = emulator.ScaleAge(2, 4, 4)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1.0)
		})
	})

	Convey("Given a zero width window", t, func() {
		_, err := emulator.ScaleAge(3, 3, 3)
		So(errors.Is(err, emulator.ErrDegenerateAgeWindow), ShouldBeTrue)
	})
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pipeline over stub models", t, func() {
		p, err := emulator.NewPipeline(stubModels())
		So(err, ShouldBeNil)

		Convey("When predicting mid-way through the track", func() {
			pred, err := p.Predict(ctx, math.Pow(10, 6.5), 0.3)

			Convey("Then every stage is chained", func() {
				So(err, ShouldBeNil)
				So(pred.LogAgeZAMS, ShouldEqual, 6)
				So(pred.LogAgeTACHeB, ShouldEqual, 7)
				So(pred.TScaled, ShouldAlmostEqual, 0.5, 1e-12)
				So(pred.S, ShouldEqual, pred.TScaled)
				So(pred.LogL, ShouldEqual, pred.S)
				So(pred.LogTeff, ShouldEqual, 0.3)
				So(pred.LogG, ShouldEqual, pred.S+0.3)
			})
		})

		Convey("When the age is not positive", func() {
			_, err := p.Predict(ctx, 0, 0.3)
			So(errors.Is(err, emulator.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When sampling a track over s", func() {
			obs, err := p.Track(ctx, 1, []float64{0, 0.5, 1})

			Convey("Then one observable triple is returned per sample", func() {
				So(err, ShouldBeNil)
				So(len(obs), ShouldEqual, 3)
				So(obs[1], ShouldResemble, emulator.Observables{LogL: 0.5, LogTeff: 1, LogG: 1.5})
			})
		})
	})

	Convey("Given a failing progress model", t, func() {
		m := stubModels()
		boom := errors.New("boom")
		m.Progress = emulator.PredictorFunc(func([]float64) ([]float64, error) { return nil, boom })
		p, err := emulator.NewPipeline(m)
		So(err, ShouldBeNil)

		_, err = p.Predict(ctx, 5e6, 0)

		Convey("Then the failure propagates as a model inference error", func() {
			So(errors.Is(err, emulator.ErrModelInference), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given an observables model with the wrong width", t, func() {
		m := stubModels()
		m.Observables = constant(1)
		p, err := emulator.NewPipeline(m)
		So(err, ShouldBeNil)

		_, err = p.Predict(ctx, 5e6, 0)
		So(errors.Is(err, emulator.ErrShape), ShouldBeTrue)
	})

	Convey("Given equal boundary ages", t, func() {
		m := stubModels()
		m.AgeEnd = constant(6)
		p, err := emulator.NewPipeline(m)
		So(err, ShouldBeNil)

		_, err = p.Predict(ctx, 5e6, 0)
		So(errors.Is(err, emulator.ErrDegenerateAgeWindow), ShouldBeTrue)
	})

	Convey("Given a missing model", t, func() {
		m := stubModels()
		m.Observables = nil
		_, err := emulator.NewPipeline(m)
		So(errors.Is(err, emulator.ErrMissingModel), ShouldBeTrue)
	})
}

func TestIsochrones(t *testing.T) {
	ctx := context.Background()

	Convey("Given an isochrone computer with a track ending at 10^7 yr", t, func() {
		p, err := emulator.NewPipeline(stubModels())
		So(err, ShouldBeNil)
		iso := emulator.NewIsochrones(p)

		// ZAMS at 10^6 yr, so the last admissible elapsed time is just below 9e6.
		elapsed := []float64{1e6, 8.999e6, 9e6, 2e7}
		masses := []float64{0, 0.5}

		set, err := iso.Compute(ctx, masses, elapsed)

		Convey("Then elapsed times reaching the end of the track are omitted", func() {
			So(err, ShouldBeNil)
			So(len(set.Isochrone(1e6)), ShouldEqual, 2)
			So(len(set.Isochrone(8.999e6)), ShouldEqual, 2)
			So(len(set.Isochrone(9e6)), ShouldEqual, 0)
			So(len(set.Isochrone(2e7)), ShouldEqual, 0)
			So(set.Skipped, ShouldEqual, 4)
			So(len(set.Rows), ShouldEqual, 4)
		})

		Convey("And the long-form table keeps input order and all columns", func() {
			r := set.Rows[1]
			So(r.LogMini, ShouldEqual, 0.5)
			So(r.LogElapsed, ShouldAlmostEqual, 6, 1e-12)
			So(r.LogTestAge, ShouldAlmostEqual, math.Log10(2e6), 1e-12)
			So(r.TScaled, ShouldAlmostEqual, math.Log10(2e6)-6, 1e-12)
			So(r.LogTeff, ShouldEqual, 0.5)
		})

		Convey("And the set can be reindexed from its rows", func() {
			set.ByTime = nil
			set.Reindex()
			So(len(set.Isochrone(8.999e6)), ShouldEqual, 2)
			So(len(set.Isochrone(9e6)), ShouldEqual, 0)
		})
	})

	Convey("Given a non-positive elapsed time", t, func() {
		p, err := emulator.NewPipeline(stubModels())
		So(err, ShouldBeNil)
		_, err = emulator.NewIsochrones(p).Compute(ctx, []float64{0}, []float64{0})
		So(errors.Is(err, emulator.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Given a runner returning results out of order", t, func() {
		p, err := emulator.NewPipeline(stubModels())
		So(err, ShouldBeNil)
		iso := emulator.NewIsochrones(p, emulator.WithRunner(reversedRunner{eval: p}))

		set, err := iso.Compute(ctx, []float64{0, 0.1, 0.2}, []float64{1e6})

		Convey("Then rows are still ordered by mass", func() {
			So(err, ShouldBeNil)
			So(len(set.Rows), ShouldEqual, 3)
			So(set.Rows[0].LogMini, ShouldEqual, 0)
			So(set.Rows[2].LogMini, ShouldEqual, 0.2)
		})
	})
}

type reversedRunner struct {
	eval emulator.CellEvaluator
}

func (r reversedRunner) Run(ctx context.Context, cells []emulator.Cell) ([]emulator.CellResult, error) {
	out := make([]emulator.CellResult, len(cells))
	for i, c := range cells {
		out[len(cells)-1-i] = r.eval.EvaluateCell(ctx, c)
	}
	return out, nil
}
