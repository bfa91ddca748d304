package service_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/stellaremu/internal/adapters/repository"
	service "github.com/okian/stellaremu/internal/app"
	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/track"
	"github.com/okian/stellaremu/pkg/logger"
)

// rawTrack builds an unfiltered track: one pre-main-sequence row followed by
// 20 rows whose age grows by 10% from 10^(7 - 2.5 log M) and whose
// observables move linearly with the row fraction.
func rawTrack(mass float64) *track.Track {
	const n = 20
	lm := math.Log10(mass)
	start := math.Pow(10, 7-2.5*lm)
	cols := map[string][]float64{}
	add := func(k string, v float64) { cols[k] = append(cols[k], v) }

	add(track.ColAge, start/2)
	add(track.ColPhase, float64(track.PhasePMS))
	add(track.ColLogL, 3.5*lm-1)
	add(track.ColLogTeff, 3.6)
	add(track.ColLogRho, 1)
	add(track.ColCenterHe4, 0.28)
	add(track.ColLogCenterT, 6.9)
	add(track.ColLogG, 4.6)

	for i := 0; i < n; i++ {
		f := float64(i) / (n - 1)
		phase := track.PhaseMS
		if i >= n/2 {
			phase = track.PhaseRGB
		}
		add(track.ColAge, start*math.Pow(1.1, f))
		add(track.ColPhase, float64(phase))
		add(track.ColLogL, 3.5*lm+f)
		add(track.ColLogTeff, 3.7+0.1*lm-0.2*f)
		add(track.ColLogRho, 2+f)
		add(track.ColCenterHe4, 0.98*(1-f))
		add(track.ColLogCenterT, 7.1+0.1*f)
		add(track.ColLogG, 4.4-f)
	}

	t, err := track.New("m"+formatMass(mass), mass, cols)
	if err != nil {
		panic(err)
	}
	return t
}

func formatMass(m float64) string {
	return map[float64]string{1: "001", 2: "002", 4: "004", 8: "008"}[m]
}

func startedService(ctx context.Context, opts ...service.Option) *service.Service {
	So(logger.Init(), ShouldBeNil)
	svc := service.New(append([]service.Option{service.WithWorkerCount(3), service.WithQueueSize(64)}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then operations fail with ErrNotStarted", func() {
			So(errors.Is(svc.IngestTrack(context.Background(), rawTrack(1)), service.ErrNotStarted), ShouldBeTrue)
			_, err := svc.Predict(context.Background(), 1e7, 0)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service with an empty store", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		Reset(func() { svc.Stop(ctx) })

		Convey("Then queries report an empty catalog", func() {
			_, err := svc.Predict(ctx, 1e7, 0)
			So(errors.Is(err, catalog.ErrEmptyCatalog), ShouldBeTrue)
			_, err = svc.Rebuild(ctx)
			So(errors.Is(err, catalog.ErrEmptyCatalog), ShouldBeTrue)
		})

		Convey("Then malformed tracks are rejected", func() {
			nameless := rawTrack(1)
			nameless.Name = ""
			So(errors.Is(svc.IngestTrack(ctx, nameless), service.ErrBadTrack), ShouldBeTrue)

			ragged := rawTrack(1)
			ragged.Data[track.ColLogL] = ragged.Data[track.ColLogL][:3]
			So(errors.Is(svc.IngestTrack(ctx, ragged), track.ErrMalformedTrack), ShouldBeTrue)
		})

		Convey("Then a second track with an already stored mass is rejected", func() {
			So(svc.IngestTrack(ctx, rawTrack(1)), ShouldBeNil)

			twin := rawTrack(1)
			twin.Name = "m001-copy"
			err := svc.IngestTrack(ctx, twin)
			So(errors.Is(err, service.ErrBadTrack), ShouldBeTrue)
			So(errors.Is(err, catalog.ErrDuplicateMass), ShouldBeTrue)

			So(svc.IngestTrack(ctx, rawTrack(1)), ShouldBeNil)
			_, err = svc.Rebuild(ctx)
			So(err, ShouldBeNil)
		})

		Convey("Then stats report the service as started without a catalog", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["tracks"], ShouldBeNil)
			So(stats["phaseLabels"], ShouldResemble, map[int]string{
				track.PhaseMS: "MS", track.PhaseRGB: "RGB", track.PhaseCHeB: "CHeB", track.PhaseWR: "WR",
			})
		})
	})
}

func TestServiceEmulation(t *testing.T) {
	Convey("Given a service with four ingested tracks", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		Reset(func() { svc.Stop(ctx) })

		for _, m := range []float64{8, 1, 4, 2} {
			So(svc.IngestTrack(ctx, rawTrack(m)), ShouldBeNil)
		}
		cat, err := svc.Rebuild(ctx)
		So(err, ShouldBeNil)

		Convey("When rebuilt", func() {
			Convey("Then the catalog holds the masses in ascending order", func() {
				So(cat.Len(), ShouldEqual, 4)
				So(cat.Masses(), ShouldResemble, []float64{1, 2, 4, 8})
				name, ok := svc.TrackName(4)
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "m004")
				So(svc.GetStats()["tracks"], ShouldEqual, 4)
			})
		})

		Convey("When interpolating on a catalog mass at the first row", func() {
			est, err := svc.Interpolate(ctx, 2, 0, track.ColLogL)

			Convey("Then the stored value is returned exactly", func() {
				So(err, ShouldBeNil)
				So(est.Value, ShouldAlmostEqual, 3.5*math.Log10(2), 1e-12)
				So(est.Clamped, ShouldBeFalse)
			})
		})

		Convey("When interpolating above the heaviest track", func() {
			est, err := svc.Interpolate(ctx, 20, 0.5, track.ColLogL)

			Convey("Then the result is flagged as clamped", func() {
				So(err, ShouldBeNil)
				So(est.Clamped, ShouldBeTrue)
				So(est.Mass.Lower, ShouldEqual, 8)
			})
		})

		Convey("When interpolating at a non-finite mass", func() {
			_, err := svc.Interpolate(ctx, math.NaN(), 0.5, track.ColLogL)

			Convey("Then ErrInvalidQuery is returned", func() {
				So(errors.Is(err, catalog.ErrInvalidQuery), ShouldBeTrue)
			})
		})

		Convey("When interpolating an unknown column", func() {
			_, err := svc.Interpolate(ctx, 2, 0.5, "log_R")

			Convey("Then ErrMissingTarget is returned", func() {
				So(errors.Is(err, catalog.ErrMissingTarget), ShouldBeTrue)
			})
		})

		Convey("When predicting a star inside its track's age window", func() {
			lm := math.Log10(4)
			pred, err := svc.Predict(ctx, 1.05*math.Pow(10, 7-2.5*lm), lm)

			Convey("Then the observables fall on the track", func() {
				So(err, ShouldBeNil)
				So(pred.TScaled, ShouldBeBetween, 0, 1)
				So(pred.LogL, ShouldBeBetweenOrEqual, 3.5*lm, 3.5*lm+1)
			})
		})

		Convey("When sampling a synthetic track between catalog masses", func() {
			out, err := svc.SyntheticTrack(ctx, 3, 5)

			Convey("Then every observable is sampled on the s grid", func() {
				So(err, ShouldBeNil)
				So(out[track.ColS], ShouldResemble, []float64{0, 0.25, 0.5, 0.75, 1})
				So(len(out[track.ColLogL]), ShouldEqual, 5)
				So(len(out[track.ColLogTeff]), ShouldEqual, 5)
				So(len(out[track.ColLogG]), ShouldEqual, 5)
			})
		})

		Convey("When computing isochrones through the worker pool", func() {
			run, err := svc.Isochrones(ctx, []float64{0, math.Log10(2)}, []float64{1e4, 1e9})

			Convey("Then cells past the end of the track are skipped", func() {
				So(err, ShouldBeNil)
				So(run.ID, ShouldNotBeEmpty)
				So(len(run.Result.Rows), ShouldEqual, 2)
				So(run.Result.Skipped, ShouldEqual, 2)
				So(run.Result.Rows[0].LogMini, ShouldEqual, 0)
				So(run.Result.Rows[1].LogMini, ShouldEqual, math.Log10(2))
			})

			Convey("Then the run can be read back", func() {
				got, err := svc.Run(ctx, run.ID)
				So(err, ShouldBeNil)
				So(got.Result.Rows, ShouldResemble, run.Result.Rows)
				So(len(got.Result.Isochrone(1e4)), ShouldEqual, 2)
			})
		})

		Convey("When the isochrone grid outgrows the job queue", func() {
			small := startedService(ctx, service.WithWorkerCount(1), service.WithQueueSize(8))
			Reset(func() { small.Stop(ctx) })
			for _, m := range []float64{1, 2, 4, 8} {
				So(small.IngestTrack(ctx, rawTrack(m)), ShouldBeNil)
			}
			_, err := small.Rebuild(ctx)
			So(err, ShouldBeNil)

			logMasses := make([]float64, 40)
			for i := range logMasses {
				logMasses[i] = math.Log10(8) * float64(i) / float64(len(logMasses)-1)
			}
			run, err := small.Isochrones(ctx, logMasses, []float64{1e5, 1e6})

			Convey("Then every cell is evaluated", func() {
				So(err, ShouldBeNil)
				So(len(run.Result.Rows)+run.Result.Skipped, ShouldEqual, 80)
			})
		})

		Convey("When asking for an unknown run", func() {
			_, err := svc.Run(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When isochrone times are not positive", func() {
			_, err := svc.Isochrones(ctx, []float64{0}, []float64{0})

			Convey("Then ErrInvalidInput is returned", func() {
				So(errors.Is(err, emulator.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestServiceCustomModels(t *testing.T) {
	Convey("Given a service configured with external models", t, func() {
		ctx := context.Background()
		constant := func(v ...float64) emulator.PredictorFunc {
			return func([]float64) ([]float64, error) { return v, nil }
		}
		svc := startedService(ctx, service.WithModels(emulator.Models{
			AgeStart:    constant(6),
			AgeEnd:      constant(7),
			Progress:    constant(0.5),
			Observables: constant(1, 2, 3),
		}))
		Reset(func() { svc.Stop(ctx) })
		So(svc.IngestTrack(ctx, rawTrack(1)), ShouldBeNil)
		_, err := svc.Rebuild(ctx)
		So(err, ShouldBeNil)

		Convey("When predicting", func() {
			pred, err := svc.Predict(ctx, 5e6, 0)

			Convey("Then the external models answer", func() {
				So(err, ShouldBeNil)
				So(pred.Observables, ShouldResemble, emulator.Observables{LogL: 1, LogTeff: 2, LogG: 3})
				So(pred.S, ShouldEqual, 0.5)
			})
		})
	})
}

func TestServiceSQLitePersistence(t *testing.T) {
	Convey("Given tracks ingested into a sqlite-backed service", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "tracks.db")

		first := startedService(ctx, service.WithStore(repository.NewSQLiteStore(path)))
		So(first.IngestTrack(ctx, rawTrack(1)), ShouldBeNil)
		So(first.IngestTrack(ctx, rawTrack(2)), ShouldBeNil)
		first.Stop(ctx)

		Convey("When a new service starts on the same file", func() {
			second := startedService(ctx, service.WithStore(repository.NewSQLiteStore(path)))
			Reset(func() { second.Stop(ctx) })

			Convey("Then the catalog is rebuilt on start", func() {
				So(second.GetStats()["tracks"], ShouldEqual, 2)
				_, err := second.Interpolate(ctx, 1.5, 0.5, track.ColLogTeff)
				So(err, ShouldBeNil)
			})
		})
	})
}
