package reembed

// State is the pipeline's position in its processing cycle. It moves
// through the scanning and batch states repeatedly within a pass and rests
// at PassComplete between passes.
type State int

const (
	// StateIdle means no run is in progress.
	StateIdle State = iota

	// StateScanning means a candidate snapshot is being opened or paged.
	StateScanning

	// StateBatchReady means a batch has been cut and awaits embedding.
	StateBatchReady

	// StateEmbedding means a batch request is in flight.
	StateEmbedding

	// StateClassifying means embedding outcomes are being classified.
	StateClassifying

	// StatePersisting means classified outcomes are being written back.
	StatePersisting

	// StatePassComplete means the pass finished and the run is deciding
	// whether another is needed.
	StatePassComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateBatchReady:
		return "batch_ready"
	case StateEmbedding:
		return "embedding"
	case StateClassifying:
		return "classifying"
	case StatePersisting:
		return "persisting"
	case StatePassComplete:
		return "pass_complete"
	default:
		return "unknown"
	}
}
