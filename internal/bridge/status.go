package bridge

// Status is the bridge availability state. Exactly one value holds at any
// instant; it is mutated only through the bridge's transition points and
// read by every public operation before acting.
type Status int32

const (
	StatusStopped Status = iota
	StatusInitializing
	StatusReady
	StatusThinking
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusThinking:
		return "thinking"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
