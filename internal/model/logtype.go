package model

import "fmt"

// LogType selects which transaction log a record belongs to.
type LogType string

// The two transaction logs.
const (
	LogTypeBank LogType = "bank"
	LogTypeCC   LogType = "cc"
)

// LogTypes lists the logs in processing order.
var LogTypes = []LogType{LogTypeBank, LogTypeCC}

// ParseLogType validates a log type string.
func ParseLogType(s string) (LogType, error) {
	switch LogType(s) {
	case LogTypeBank, LogTypeCC:
		return LogType(s), nil
	default:
		return "", fmt.Errorf("unknown log type %q (want %q or %q)", s, LogTypeBank, LogTypeCC)
	}
}
