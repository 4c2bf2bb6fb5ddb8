package pipeline

// State identifies where the pipeline is in its per-file cycle. Transitions
// run Idle -> Fetching -> Parsing -> Deduplicating -> Categorizing ->
// Appending and back to Idle; per-file errors rewind to Fetching for the
// next file, and only unrecoverable errors land in Failed.
type State string

// Pipeline states.
const (
	StateIdle          State = "idle"
	StateFetching      State = "fetching"
	StateParsing       State = "parsing"
	StateDeduplicating State = "deduplicating"
	StateCategorizing  State = "categorizing"
	StateAppending     State = "appending"
	StateFailed        State = "failed"
)
