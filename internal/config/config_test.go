package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/stellaremu/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.Phases, convey.ShouldResemble, []int{0, 2, 3, 9})
			convey.So(cfg.HeliumThreshold, convey.ShouldEqual, 1e-4)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with out-of-range values", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = "" },
			"zero workers":     func(c *config.Config) { c.WorkerCount = 0 },
			"zero queue":       func(c *config.Config) { c.QueueSize = 0 },
			"unknown backend":  func(c *config.Config) { c.StoreBackend = "redis" },
			"no sqlite path":   func(c *config.Config) { c.StoreBackend = config.BackendSQLite; c.SQLitePath = "" },
			"no phases":        func(c *config.Config) { c.Phases = nil },
			"negative helium":  func(c *config.Config) { c.HeliumThreshold = -1 },
			"zero neighbors":   func(c *config.Config) { c.KNNNeighbors = 0 },
			"negative degree":  func(c *config.Config) { c.BoundaryDegree = -1 },
			"one sample point": func(c *config.Config) { c.TrackSamplePoints = 1 },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
