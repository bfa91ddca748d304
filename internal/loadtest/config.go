package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumTracks  int           // Number of synthetic tracks to ingest
	MinMass    float64       // Smallest initial mass, in solar masses
	MaxMass    float64       // Largest initial mass, in solar masses
	Rows       int           // Rows per synthetic track
	Requests   int           // Number of predict and isochrone requests
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated tracks
	Verbose    bool          // Enable verbose logging
}

// TrackPayload is the body of POST /tracks.
type TrackPayload struct {
	Name        string               `json:"name"`
	InitialMass float64              `json:"initial_mass"`
	Columns     map[string][]float64 `json:"columns"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	TestAge float64 `json:"test_age"`
	LogMass float64 `json:"log_mass"`
}

// IsochroneRequest is the body of POST /isochrones.
type IsochroneRequest struct {
	LogMasses []float64 `json:"log_masses"`
	Elapsed   []float64 `json:"elapsed"`
}

// Row is one isochrone row as returned by the service.
type Row struct {
	LogL       float64 `json:"log_L"`
	LogTeff    float64 `json:"log_Teff"`
	LogG       float64 `json:"log_g"`
	LogMini    float64 `json:"log_Mini"`
	LogElapsed float64 `json:"log_elapsed"`
}

// RunResponse is a stored isochrone run.
type RunResponse struct {
	ID        string    `json:"id"`
	LogMasses []float64 `json:"log_masses"`
	Elapsed   []float64 `json:"elapsed"`
	Result    struct {
		Times   []float64 `json:"times"`
		Rows    []Row     `json:"rows"`
		Skipped int       `json:"skipped"`
	} `json:"result"`
}

// RebuildResponse is the body returned by POST /rebuild.
type RebuildResponse struct {
	Tracks int       `json:"tracks"`
	Masses []float64 `json:"masses"`
}

// Stats holds load test statistics.
type Stats struct {
	TracksGenerated     int
	TracksSubmitted     int
	TracksAccepted      int
	TracksFailed        int
	CatalogTracks       int
	Predictions         int
	PredictionsOK       int
	PredictionsRejected int
	IsochroneRuns       int
	IsochronesOK        int
	IsochronesThrottled int
	RunsVerified        int
	RowsVerified        int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
