// Package viewer hosts a loaded model: it mounts load results, frames the
// camera once per model, turns the model, and routes pointer input to the
// orbit controls and picking.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terraview/internal/engine/camera"
	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/engine/picking"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/logger"
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/framing"
	"github.com/Faultbox/terraview/pkg/math"
)

// RotationPerFrame is the Y rotation applied to the displayed model each
// frame, in radians.
const RotationPerFrame = 0.01

// clickSlop is how far in pixels the pointer may travel between press and
// release and still count as a click.
const clickSlop = 4

// commandQueueSize bounds pending cross-thread requests.
const commandQueueSize = 16

// ErrQueueFull is returned when the command queue cannot take more requests.
var ErrQueueFull = errors.New("viewer command queue full")

// Loader runs model loads. *loader.Loader implements it.
type Loader interface {
	Load(ctx context.Context, req loader.Request) uint64
	Reload(ctx context.Context, req loader.Request) uint64
	Cancel()
	Latest() uint64
	Results() <-chan loader.Status
}

// Options configures a Host.
type Options struct {
	FOV        float32 // degrees; zero uses camera.DefaultFOV
	Orbit      camera.OrbitSettings
	AutoRotate bool
}

// DefaultOptions returns the standard viewer setup.
func DefaultOptions() Options {
	return Options{
		FOV:        camera.DefaultFOV,
		Orbit:      camera.DefaultOrbitSettings(),
		AutoRotate: true,
	}
}

// Snapshot is a copy of the host's externally visible state.
type Snapshot struct {
	Status loader.Status
	Frame  *framing.CameraFrame // Set while a model is displayed
}

// Host owns the displayed model, the camera and the orbit controls. Every
// method except Snapshot, Subscribe and the Request* methods must be called
// on the render thread.
type Host struct {
	ctx     context.Context
	loader  Loader
	surface Surface
	opts    Options

	camera   *camera.Perspective
	controls *camera.OrbitControls

	req      loader.Request
	hasReq   bool
	awaiting uint64 // Generation whose result is wanted, 0 for none
	status   loader.Status
	model    *model.Node
	frame    *framing.CameraFrame

	pointer pointerState

	commands chan func(*Host)

	mu          sync.Mutex
	snapshot    Snapshot
	subscribers map[int]chan Snapshot
	nextSub     int
}

type pointerState struct {
	down    bool
	dragged bool
	start   math.Vec2
	last    math.Vec2
}

// New creates a host drawing to s. Loads started by the host use ctx as
// their parent context.
func New(ctx context.Context, l Loader, s Surface, opts Options) *Host {
	if opts.FOV <= 0 {
		opts.FOV = camera.DefaultFOV
	}
	w, h := s.Size()
	cam := camera.NewPerspective(opts.FOV, aspect(w, h))

	host := &Host{
		ctx:         ctx,
		loader:      l,
		surface:     s,
		opts:        opts,
		camera:      cam,
		controls:    camera.NewOrbitControls(cam, opts.Orbit),
		commands:    make(chan func(*Host), commandQueueSize),
		subscribers: make(map[int]chan Snapshot),
	}
	host.controls.Update()
	return host
}

func aspect(w, h int) float32 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// Camera returns the host camera.
func (h *Host) Camera() *camera.Perspective {
	return h.camera
}

// Controls returns the orbit controls.
func (h *Host) Controls() *camera.OrbitControls {
	return h.controls
}

// Model returns the displayed model, or nil.
func (h *Host) Model() *model.Node {
	return h.model
}

// Status returns the current load status.
func (h *Host) Status() loader.Status {
	return h.status
}

// Load starts loading req. Loading the request that is already displayed or
// pending does nothing; use Retry to force it. After a failure the same
// request loads again.
func (h *Host) Load(req loader.Request) {
	if h.hasReq && req == h.req && h.status.State != loader.StateFailed {
		logger.Debug("ignoring identical load request", zap.String("request", req.String()))
		return
	}
	h.begin(req, false)
}

// Retry loads the last request again, bypassing the asset cache.
func (h *Host) Retry() {
	if !h.hasReq {
		return
	}
	h.begin(h.req, true)
}

func (h *Host) begin(req loader.Request, fresh bool) {
	h.req = req
	h.hasReq = true
	h.clearModel()

	var gen uint64
	if fresh {
		gen = h.loader.Reload(h.ctx, req)
	} else {
		gen = h.loader.Load(h.ctx, req)
	}
	h.awaiting = gen
	h.setStatus(loader.Loading(gen, req))
}

// Tick advances one frame: it applies finished loads and queued commands,
// turns the model, updates the controls and renders.
func (h *Host) Tick() {
	h.drainCommands()
	h.drainResults()

	w, ht := h.surface.Size()
	h.camera.SetViewport(w, ht)

	if h.status.State == loader.StateFailed {
		h.surface.RenderFailure(h.status)
		return
	}

	if h.model != nil && h.opts.AutoRotate {
		h.model.RotationY += RotationPerFrame
	}
	h.controls.Update()

	h.surface.Render(Frame{
		Model:      h.model,
		View:       h.camera.ViewMatrix(),
		Projection: h.camera.ProjectionMatrix(),
		Eye:        h.camera.Position,
		Status:     h.status,
	})
}

func (h *Host) drainCommands() {
	for {
		select {
		case cmd := <-h.commands:
			cmd(h)
		default:
			return
		}
	}
}

func (h *Host) drainResults() {
	for {
		select {
		case st := <-h.loader.Results():
			h.apply(st)
		default:
			return
		}
	}
}

// apply mounts a finished load if it is the one the host is waiting for.
func (h *Host) apply(st loader.Status) {
	if st.Generation != h.awaiting || st.Generation != h.loader.Latest() {
		logger.Debug("discarding stale load result",
			zap.Uint64("generation", st.Generation),
			zap.Uint64("awaiting", h.awaiting))
		return
	}
	h.awaiting = 0

	if st.State != loader.StateReady {
		h.setStatus(st)
		return
	}

	if err := h.surface.SetModel(st.Model); err != nil {
		logger.Error("model upload failed", zap.Uint64("generation", st.Generation), zap.Error(err))
		h.setStatus(loader.Failed(st.Generation, st.Request, loader.FailureMessage(st.Request.Kind), err))
		return
	}

	h.model = st.Model
	summary := bounds.Compute(st.Model).Summary()
	frame := framing.FrameBounds(summary, h.camera.FOV)
	framing.Apply(frame, h.camera, h.controls)
	h.frame = &frame

	logger.Info("model framed",
		zap.Uint64("generation", st.Generation),
		zap.Bool("terrain", frame.Terrain),
		zap.Float32("diagonal", summary.Diagonal))
	h.setStatus(st)
}

func (h *Host) clearModel() {
	if h.model == nil {
		return
	}
	if err := h.surface.SetModel(nil); err != nil {
		logger.Warn("clearing model failed", zap.Error(err))
	}
	h.model = nil
	h.frame = nil
}

// PointerDown starts a press at pixel (x, y).
func (h *Host) PointerDown(x, y float32) {
	pos := math.Vec2{X: x, Y: y}
	h.pointer = pointerState{down: true, start: pos, last: pos}
}

// PointerMove rotates the controls while the pointer is pressed.
func (h *Host) PointerMove(x, y float32) {
	p := &h.pointer
	if !p.down {
		return
	}
	pos := math.Vec2{X: x, Y: y}
	delta := pos.Sub(p.last)
	p.last = pos

	if !p.dragged {
		p.dragged = pos.Sub(p.start).Length() > clickSlop
	}
	_, height := h.surface.Size()
	h.controls.HandleDrag(delta.X, delta.Y, height)
}

// PointerUp ends a press. A press released without dragging is a click; a
// click that misses the model fails the viewer.
func (h *Host) PointerUp(x, y float32) {
	p := h.pointer
	h.pointer = pointerState{}
	if !p.down || p.dragged || h.status.State == loader.StateFailed {
		return
	}

	if _, hit := h.Pick(x, y); hit {
		return
	}

	logger.Warn("pointer missed model", zap.Float32("x", x), zap.Float32("y", y))
	h.loader.Cancel()
	h.awaiting = 0
	h.clearModel()
	err := fmt.Errorf("%w at (%.0f, %.0f)", loader.ErrInteractionMiss, x, y)
	h.setStatus(loader.Failed(h.status.Generation, h.req, loader.MsgClickMissed, err))
}

// Wheel zooms by wheel steps; positive steps move closer.
func (h *Host) Wheel(steps float32) {
	h.controls.HandleZoom(steps)
}

// Pick casts a ray through pixel (x, y) against the displayed model.
func (h *Host) Pick(x, y float32) (picking.Hit, bool) {
	if h.model == nil {
		return picking.Hit{}, false
	}
	w, ht := h.surface.Size()
	if w <= 0 || ht <= 0 {
		return picking.Hit{}, false
	}
	inv := h.camera.ViewProjection().Inverse()
	ray := picking.ScreenToRay(x, y, float32(w), float32(ht), inv)
	return picking.PickModel(ray, h.model)
}

// RequestLoad queues Load to run on the render thread. Safe for concurrent use.
func (h *Host) RequestLoad(req loader.Request) error {
	return h.enqueue(func(h *Host) { h.Load(req) })
}

// RequestRetry queues Retry to run on the render thread. Safe for concurrent use.
func (h *Host) RequestRetry() error {
	return h.enqueue((*Host).Retry)
}

func (h *Host) enqueue(cmd func(*Host)) error {
	select {
	case h.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}
