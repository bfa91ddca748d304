package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stellaremu/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body. A nil body sends none.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// fanOut feeds items to config.Workers goroutines running do.
func fanOut[T any](ctx context.Context, config *Config, items []T, do func(T)) {
	workers := max(1, config.Workers)
	ch := make(chan T, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				if ctx.Err() != nil {
					continue
				}
				do(item)
			}
		}()
	}

	func() {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	wg.Wait()
}

// submitTracks posts tracks concurrently.
func submitTracks(ctx context.Context, config *Config, tracks []TrackPayload, stats *Stats) error {
	logger.Get().Info(ctx, "submitting tracks",
		logger.Int("tracks", len(tracks)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/tracks"

	var submitted, accepted, failed int64
	fanOut(ctx, config, tracks, func(t TrackPayload) {
		atomic.AddInt64(&submitted, 1)
		if status, err := post(ctx, client, url, t, nil); err != nil || status != http.StatusCreated {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				logger.Get().Warn(ctx, "track rejected",
					logger.String("track", t.Name), logger.Int("status", status), logger.Error(err))
			}
			return
		}
		atomic.AddInt64(&accepted, 1)
	})

	stats.TracksSubmitted = int(atomic.LoadInt64(&submitted))
	stats.TracksAccepted = int(atomic.LoadInt64(&accepted))
	stats.TracksFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "track submission completed",
		logger.Int("accepted", stats.TracksAccepted), logger.Int("failed", stats.TracksFailed))
	if stats.TracksAccepted == 0 {
		return fmt.Errorf("no tracks accepted out of %d", stats.TracksSubmitted)
	}
	return ctx.Err()
}

// rebuildCatalog asks the service to rebuild its catalog from stored tracks.
func rebuildCatalog(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	var out RebuildResponse
	status, err := post(ctx, client, config.BaseURL+"/rebuild", nil, &out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("rebuild returned status %d", status)
	}
	stats.CatalogTracks = out.Tracks
	logger.Get().Info(ctx, "catalog rebuilt", logger.Int("tracks", out.Tracks))
	return nil
}

// query is one predict or isochrone request.
type query struct {
	predict   *PredictRequest
	isochrone *IsochroneRequest
}

// fireQueries sends predictions and isochrone runs concurrently and
// returns the IDs of the runs that were created.
func fireQueries(ctx context.Context, config *Config, stats *Stats) ([]string, error) {
	queries := make([]query, config.Requests)
	for i := range queries {
		if i%IsochroneEvery == 0 {
			req := randomIsochrone(config)
			queries[i].isochrone = &req
			continue
		}
		req := randomPrediction(config)
		queries[i].predict = &req
	}

	logger.Get().Info(ctx, "sending queries", logger.Int("requests", len(queries)))

	client := newHTTPClient(config.Timeout)
	var (
		mu         sync.Mutex
		runIDs     []string
		failed     int64
		predictOK  int64
		predictRej int64
		isoOK      int64
		isoThr     int64
		predicted  int64
		isochrones int64
	)
	fanOut(ctx, config, queries, func(q query) {
		if q.predict != nil {
			atomic.AddInt64(&predicted, 1)
			switch predictOutcome(ctx, client, config.BaseURL, *q.predict) {
			case outcomeOK:
				atomic.AddInt64(&predictOK, 1)
			case outcomeRejected:
				atomic.AddInt64(&predictRej, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
			return
		}

		atomic.AddInt64(&isochrones, 1)
		id, outcome := isochroneOutcome(ctx, client, config.BaseURL, *q.isochrone)
		switch outcome {
		case outcomeOK:
			atomic.AddInt64(&isoOK, 1)
			mu.Lock()
			runIDs = append(runIDs, id)
			mu.Unlock()
		case outcomeThrottled:
			atomic.AddInt64(&isoThr, 1)
		default:
			atomic.AddInt64(&failed, 1)
		}
	})

	stats.Predictions = int(predicted)
	stats.PredictionsOK = int(predictOK)
	stats.PredictionsRejected = int(predictRej)
	stats.IsochroneRuns = int(isochrones)
	stats.IsochronesOK = int(isoOK)
	stats.IsochronesThrottled = int(isoThr)

	logger.Get().Info(ctx, "queries completed",
		logger.Int("predictionsOK", stats.PredictionsOK),
		logger.Int("predictionsRejected", stats.PredictionsRejected),
		logger.Int("isochronesOK", stats.IsochronesOK),
		logger.Int("isochronesThrottled", stats.IsochronesThrottled),
		logger.Int("failed", int(failed)))

	if failed > 0 {
		return runIDs, fmt.Errorf("%d queries failed", failed)
	}
	return runIDs, ctx.Err()
}

// predictOutcome classifies a single prediction. 422 means the age fell
// outside the emulated window, which is a valid answer.
func predictOutcome(ctx context.Context, client *HTTPClient, baseURL string, req PredictRequest) string {
	status, err := post(ctx, client, baseURL+"/predict", req, nil)
	switch {
	case err != nil:
		return outcomeFailed
	case status == http.StatusOK:
		return outcomeOK
	case status == http.StatusUnprocessableEntity:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

// isochroneOutcome classifies a single isochrone run and returns its ID.
func isochroneOutcome(ctx context.Context, client *HTTPClient, baseURL string, req IsochroneRequest) (string, string) {
	var run RunResponse
	status, err := post(ctx, client, baseURL+"/isochrones", req, &run)
	switch {
	case err != nil:
		return "", outcomeFailed
	case status == http.StatusCreated:
		return run.ID, outcomeOK
	case status == http.StatusTooManyRequests:
		return "", outcomeThrottled
	default:
		return "", outcomeFailed
	}
}

// post sends body and decodes a successful response into out when out is
// not nil.
func post(ctx context.Context, client *HTTPClient, url string, body, out any) (int, error) {
	resp, err := client.Post(ctx, url, body)
	if err != nil {
		return 0, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return resp.StatusCode, err
	}
	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// getJSON fetches url and decodes a 200 response into out.
func getJSON(ctx context.Context, client *HTTPClient, url string, out any) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
