package loader

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terraview/internal/engine/model"
)

// Error classes carried by failed statuses. Inspect with errors.Is.
var (
	ErrNetwork         = errors.New("asset unavailable")
	ErrParse           = errors.New("malformed asset")
	ErrInteractionMiss = errors.New("pointer hit nothing")
)

// User-facing failure messages.
const (
	MsgOBJFailed   = "Failed to load OBJ/MTL model"
	MsgGLTFFailed  = "Failed to load GLTF model"
	MsgClickMissed = "Failed to load model: Click missed"
)

// ModelScale is the display scale applied to every loaded model.
const ModelScale = 0.5

// State is the load lifecycle state.
type State int

// Load states.
const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "loading":
		*s = StateLoading
	case "ready":
		*s = StateReady
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown load state %q", text)
	}
	return nil
}

// Status is the outcome of one load attempt. Exactly one of the states is
// active; Model is set only when Ready and Message only when Failed.
type Status struct {
	State      State
	Message    string
	Generation uint64
	Request    Request
	Model      *model.Node
	Err        error
}

// Loading returns the status of a request that has just started.
func Loading(gen uint64, req Request) Status {
	return Status{State: StateLoading, Generation: gen, Request: req}
}

// Ready returns a successful status.
func Ready(gen uint64, req Request, root *model.Node) Status {
	return Status{State: StateReady, Generation: gen, Request: req, Model: root}
}

// Failed returns a failed status with a user-facing message and its cause.
func Failed(gen uint64, req Request, msg string, err error) Status {
	return Status{State: StateFailed, Generation: gen, Request: req, Message: msg, Err: err}
}

// FailureMessage returns the coarse message shown for any failure of kind.
func FailureMessage(kind Kind) string {
	if kind == KindOBJ {
		return MsgOBJFailed
	}
	return MsgGLTFFailed
}
