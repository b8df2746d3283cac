package statusfeed

import (
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/viewer"
	"github.com/Faultbox/terraview/pkg/framing"
)

// Message is the JSON form of a viewer snapshot.
type Message struct {
	State      loader.State    `json:"state"`
	Message    string          `json:"message,omitempty"`
	Generation uint64          `json:"generation"`
	Request    *loader.Request `json:"request,omitempty"`
	Frame      *Frame          `json:"frame,omitempty"`
}

// Frame is the JSON form of a camera frame.
type Frame struct {
	Position    [3]float32 `json:"position"`
	LookAt      [3]float32 `json:"lookAt"`
	OrbitTarget [3]float32 `json:"orbitTarget"`
	Terrain     bool       `json:"terrain"`
}

// NewMessage converts a snapshot for the wire.
func NewMessage(s viewer.Snapshot) Message {
	m := Message{
		State:      s.Status.State,
		Message:    s.Status.Message,
		Generation: s.Status.Generation,
	}
	if s.Status.Request.ModelURL != "" {
		req := s.Status.Request
		m.Request = &req
	}
	if s.Frame != nil {
		m.Frame = newFrame(*s.Frame)
	}
	return m
}

func newFrame(f framing.CameraFrame) *Frame {
	return &Frame{
		Position:    f.Position.Array(),
		LookAt:      f.LookAt.Array(),
		OrbitTarget: f.OrbitTarget.Array(),
		Terrain:     f.Terrain,
	}
}
