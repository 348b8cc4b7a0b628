package model

import (
	"time"
)

// SignResult is the outcome of signing one request URL.
type SignResult struct {
	// URL is the request URL as given by the user.
	URL string `json:"url"`

	// Query is the raw query component that was passed to the script.
	Query string `json:"query"`

	// UserAgent is the user agent the signature is bound to.
	UserAgent string `json:"user_agent"`

	// ABogus is the signature returned by the script.
	ABogus string `json:"a_bogus,omitempty"`

	// MsToken is a freshly generated ms_token, when requested.
	MsToken string `json:"ms_token,omitempty"`

	// SignedURL is URL with the a_bogus parameter appended, when requested.
	SignedURL string `json:"signed_url,omitempty"`

	// Engine is the JavaScript engine that ran the script.
	Engine string `json:"engine"`

	// SignedAt is when signing started.
	SignedAt time.Time `json:"signed_at"`

	// Elapsed is how long the script call took.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Error holds the failure message when signing failed.
	Error string `json:"error,omitempty"`
}

// NewSignResult creates a result for rawURL stamped with the current time.
func NewSignResult(rawURL, userAgent, engine string) *SignResult {
	return &SignResult{
		URL:       rawURL,
		UserAgent: userAgent,
		Engine:    engine,
		SignedAt:  time.Now(),
	}
}

// Failed reports whether signing failed.
func (r *SignResult) Failed() bool {
	return r.Error != ""
}

// SetError records err on the result. A nil error is ignored.
func (r *SignResult) SetError(err error) {
	if err != nil {
		r.Error = err.Error()
	}
}

// Summary aggregates a set of results.
type Summary struct {
	// Total is the number of results.
	Total int `json:"total"`

	// Succeeded is the number of results with a signature.
	Succeeded int `json:"succeeded"`

	// Failed is the number of results with an error.
	Failed int `json:"failed"`

	// Elapsed is the sum of all script call durations.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Summarize counts successes and failures. Nil entries are counted as failures.
func Summarize(results []*SignResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r == nil || r.Failed() {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Elapsed += r.Elapsed
	}
	return s
}
