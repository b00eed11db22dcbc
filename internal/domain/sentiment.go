package domain

import "time"

// SentimentLabel is the closed set of market outlooks a classification can yield.
type SentimentLabel string

const (
	SentimentBullish   SentimentLabel = "bullish"
	SentimentBearish   SentimentLabel = "bearish"
	SentimentNeutral   SentimentLabel = "neutral"
	SentimentMixed     SentimentLabel = "mixed"
	SentimentUnknown   SentimentLabel = "unknown"
	SentimentSimulated SentimentLabel = "simulated"
)

// Labels lists every label in report order.
func Labels() []SentimentLabel {
	return []SentimentLabel{
		SentimentBullish,
		SentimentBearish,
		SentimentNeutral,
		SentimentMixed,
		SentimentUnknown,
		SentimentSimulated,
	}
}

// Subject identifies the articles a result was computed for.
type Subject struct {
	Title string
	URL   string
	Date  string
}

// SentimentResult is the structured output of one classification call.
type SentimentResult struct {
	Label          SentimentLabel
	Rationale      string
	KeyPoints      []string
	Sectors        []string
	Raw            string
	Provider       string
	Model          string
	Simulated      bool
	FallbackReason string
	Subjects       []Subject
}

// Covered is the number of articles the result speaks for; a result without
// subjects still counts once.
func (r SentimentResult) Covered() int {
	if len(r.Subjects) == 0 {
		return 1
	}
	return len(r.Subjects)
}

// ReportMeta carries everything the reporter needs besides the results.
type ReportMeta struct {
	Scope       string
	Board       string
	SourceFile  string
	ScannedAt   string
	GeneratedAt time.Time
	Articles    int
}

// Report is a rendered markdown document.
type Report struct {
	Meta     ReportMeta
	Path     string
	Markdown string
	Counts   map[SentimentLabel]int
}
