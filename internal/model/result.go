package model

// AcquireRequest is the input accepted by the pipeline as a whole.
type AcquireRequest struct {
	Query       string `json:"query"`
	Country     string `json:"country"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
	ResultCount int    `json:"result_count,omitempty"`
}

// TraceStep records which extraction tier satisfied a URL. Observability
// only, not a correctness contract.
type TraceStep struct {
	URL        string `json:"url"`
	Tier       string `json:"tier"`
	Cached     bool   `json:"cached"`
	DurationMS int64  `json:"duration_ms"`
}

// AcquisitionResult is the pipeline's final output. Provider names the
// search source that produced the candidates ("google_cse",
// "fallback_curated"); degraded runs are signaled here, never as errors.
type AcquisitionResult struct {
	RunID    string        `json:"run_id"`
	Provider string        `json:"provider"`
	Events   []EventRecord `json:"events"`
	Trace    []TraceStep   `json:"trace"`
}
