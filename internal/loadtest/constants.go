package loadtest

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	// IsochroneEvery sends one isochrone request per this many requests;
	// the rest are single predictions.
	IsochroneEvery = 4
)

// Request outcomes.
const (
	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeThrottled = "throttled"
	outcomeFailed    = "failed"
)
