package loadtest

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/okian/stellaremu/pkg/logger"
)

// logTolerance absorbs the float round trip of log-scaled JSON values.
const logTolerance = 1e-9

// verifyRuns fetches every created run and checks its shape.
func verifyRuns(ctx context.Context, config *Config, runIDs []string, stats *Stats) error {
	logger.Get().Info(ctx, "verifying isochrone runs", logger.Int("runs", len(runIDs)))

	client := newHTTPClient(config.Timeout)
	for _, id := range runIDs {
		var run RunResponse
		if err := getJSON(ctx, client, config.BaseURL+"/isochrones/"+id, &run); err != nil {
			return fmt.Errorf("run %s: %w", id, err)
		}
		if err := verifyRun(run); err != nil {
			return fmt.Errorf("run %s: %w", id, err)
		}
		stats.RunsVerified++
		stats.RowsVerified += len(run.Result.Rows)
	}

	logger.Get().Info(ctx, "isochrone runs verified",
		logger.Int("runs", stats.RunsVerified), logger.Int("rows", stats.RowsVerified))
	return nil
}

// verifyRun checks that every (mass, time) cell produced a row or was
// skipped, that rows carry requested masses and times, and that rows are
// grouped by elapsed time in request order.
func verifyRun(run RunResponse) error {
	want := len(run.LogMasses) * len(run.Elapsed)
	if got := len(run.Result.Rows) + run.Result.Skipped; got != want {
		return fmt.Errorf("%d rows + skipped, want %d", got, want)
	}

	logTimes := make([]float64, len(run.Elapsed))
	for i, t := range run.Elapsed {
		logTimes[i] = math.Log10(t)
	}

	last := -1
	for i, row := range run.Result.Rows {
		if !containsApprox(run.LogMasses, row.LogMini) {
			return fmt.Errorf("row %d has unrequested log mass %g", i, row.LogMini)
		}
		pos := slices.IndexFunc(logTimes, func(v float64) bool { return math.Abs(v-row.LogElapsed) <= logTolerance })
		if pos < 0 {
			return fmt.Errorf("row %d has unrequested log elapsed %g", i, row.LogElapsed)
		}
		if pos < last {
			return fmt.Errorf("row %d breaks elapsed-time ordering", i)
		}
		last = pos
	}
	return nil
}

func containsApprox(values []float64, v float64) bool {
	return slices.ContainsFunc(values, func(x float64) bool { return math.Abs(x-v) <= logTolerance })
}
