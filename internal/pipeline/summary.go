package pipeline

import (
	"time"

	"github.com/passbook-dev/passbook/internal/model"
)

// SkippedFile records a statement that was deliberately not ingested.
type SkippedFile struct {
	Name   string
	Reason string
}

// FailedFile records a statement that could not be ingested this run.
type FailedFile struct {
	Err  error
	Name string
}

// LogSummary aggregates one transaction log's share of a run.
type LogSummary struct {
	LogType        model.LogType
	FilesListed    int
	FilesProcessed int
	FilesSkipped   []SkippedFile
	FilesFailed    []FailedFile
	RecordsParsed  int
	Duplicates     int
	Appended       int
	Matched        int
	Unmatched      int
}

// Summary reports everything a run did, file by file and in totals.
type Summary struct {
	StartedAt time.Time
	Duration  time.Duration
	Logs      []*LogSummary
}

// NewSummary starts the clock on a run.
func NewSummary() *Summary {
	return &Summary{StartedAt: time.Now()}
}

// Log returns the summary bucket for a log type, creating it on first use.
func (s *Summary) Log(logType model.LogType) *LogSummary {
	for _, l := range s.Logs {
		if l.LogType == logType {
			return l
		}
	}
	l := &LogSummary{LogType: logType}
	s.Logs = append(s.Logs, l)
	return l
}

// Finish stamps the run's duration.
func (s *Summary) Finish() {
	s.Duration = time.Since(s.StartedAt)
}

// TotalAppended sums appended records across logs.
func (s *Summary) TotalAppended() int {
	total := 0
	for _, l := range s.Logs {
		total += l.Appended
	}
	return total
}

// TotalFailed sums failed files across logs.
func (s *Summary) TotalFailed() int {
	total := 0
	for _, l := range s.Logs {
		total += len(l.FilesFailed)
	}
	return total
}

// RecategorizeSummary reports a full-ledger re-run of the matcher.
type RecategorizeSummary struct {
	Logs []RecategorizeLogSummary
}

// RecategorizeLogSummary is one log's share of a recategorize run.
type RecategorizeLogSummary struct {
	LogType   model.LogType
	Records   int
	Changed   int
	Matched   int
	Unmatched int
}

// TotalChanged sums category changes across logs.
func (s *RecategorizeSummary) TotalChanged() int {
	total := 0
	for _, l := range s.Logs {
		total += l.Changed
	}
	return total
}
