// Package renderer draws the viewer's scene with OpenGL.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terraview/internal/engine/debug"
	"github.com/Faultbox/terraview/internal/engine/lighting"
	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/engine/shader"
	"github.com/Faultbox/terraview/internal/engine/shadow"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/logger"
	"github.com/Faultbox/terraview/internal/viewer"
	"github.com/Faultbox/terraview/pkg/bounds"
)

// BackgroundColor is the clear colour, #1e1e2e.
const BackgroundColor = 0x1e1e2e

// Window is the part of the SDL window the renderer needs.
type Window interface {
	DrawableSize() (int, int)
	SetTitle(title string)
	Title() string
}

// Config holds renderer configuration.
type Config struct {
	ShowBounds    bool
	ScreenshotDir string
	Shadows       bool
	Lights        lighting.Scene
}

// Renderer handles all OpenGL rendering. It implements viewer.Surface.
type Renderer struct {
	config Config
	window Window
	log    *zap.Logger

	meshProgram  *shader.Program
	lineProgram  *shader.Program
	depthProgram *shader.Program

	shadowMap *shadow.Map

	scene    *gpuScene
	whiteTex uint32

	lineVAO uint32
	lineVBO uint32

	screenshots *debug.ScreenshotCapture
	wantShot    bool

	title string
}

var _ viewer.Surface = (*Renderer)(nil)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(win Window, cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:      cfg,
		window:      win,
		log:         logger.Named("renderer"),
		screenshots: debug.NewScreenshotCapture(cfg.ScreenshotDir, "terraview"),
	}

	// Initialize OpenGL
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	// Log OpenGL info
	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	r.log.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Setup default OpenGL state
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	bg := hexColor(BackgroundColor)
	gl.ClearColor(bg[0], bg[1], bg[2], 1.0)

	var err error
	if r.meshProgram, err = shader.NewProgram(meshVertexShader, meshFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	if r.lineProgram, err = shader.NewProgram(lineVertexShader, lineFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("line shader: %w", err)
	}
	if cfg.Shadows {
		r.initShadows()
	}

	r.whiteTex = uploadTexture(whitePixel())
	r.createLineBuffers()

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.scene != nil {
		r.scene.release()
		r.scene = nil
	}
	if r.whiteTex != 0 {
		gl.DeleteTextures(1, &r.whiteTex)
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
	}
	if r.depthProgram != nil {
		r.depthProgram.Delete()
	}
	r.meshProgram.Delete()
	r.lineProgram.Delete()
}

// initShadows creates the shadow pass. Failure leaves shadows off.
func (r *Renderer) initShadows() {
	depth, err := shader.NewProgram(depthVertexShader, depthFragmentShader)
	if err != nil {
		r.log.Warn("shadows disabled", zap.Error(err))
		return
	}
	sm, err := shadow.NewMap(shadow.DefaultResolution)
	if err != nil {
		depth.Delete()
		r.log.Warn("shadows disabled", zap.Error(err))
		return
	}
	r.depthProgram = depth
	r.shadowMap = sm
}

// Size returns the drawable size in pixels.
func (r *Renderer) Size() (int, int) {
	return r.window.DrawableSize()
}

// SetShowBounds toggles the bounding box overlay.
func (r *Renderer) SetShowBounds(show bool) {
	r.config.ShowBounds = show
}

// ShowBounds reports whether the bounding box overlay is on.
func (r *Renderer) ShowBounds() bool {
	return r.config.ShowBounds
}

// RequestScreenshot saves the next rendered frame as a PNG.
func (r *Renderer) RequestScreenshot() {
	r.wantShot = true
}

// SetModel uploads root to the GPU, replacing the previous model. nil
// releases the current one.
func (r *Renderer) SetModel(root *model.Node) error {
	if r.scene != nil {
		r.scene.release()
		r.scene = nil
	}
	if root == nil {
		return nil
	}

	scene, err := uploadScene(root)
	if err != nil {
		return err
	}
	r.scene = scene

	stats := root.Stats()
	r.log.Debug("model uploaded",
		zap.Int("meshes", stats.Meshes),
		zap.Int("triangles", stats.Triangles),
		zap.Int("textures", len(scene.textures)),
	)
	return nil
}

// Render draws one frame of the scene.
func (r *Renderer) Render(frame viewer.Frame) {
	r.setTitle(statusTitle(r.window.Title(), frame.Status))
	r.begin()

	if frame.Model != nil && r.scene != nil && r.scene.root == frame.Model {
		box := bounds.Compute(frame.Model)
		lightSpace := shadow.DirectionalLightMatrix(r.config.Lights.LightDirection(), box)
		if r.shadowMap.IsValid() {
			r.drawShadows(frame, lightSpace)
		}
		r.drawScene(frame, lightSpace)
		if r.config.ShowBounds {
			r.drawBounds(frame, box)
		}
	}

	r.end()
}

// RenderFailure draws the error state: an empty background with the
// failure message in the window title.
func (r *Renderer) RenderFailure(status loader.Status) {
	r.setTitle(statusTitle(r.window.Title(), status))
	r.begin()
	r.end()
}

func (r *Renderer) begin() {
	w, h := r.Size()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (r *Renderer) end() {
	if !r.wantShot {
		return
	}
	r.wantShot = false

	w, h := r.Size()
	if w <= 0 || h <= 0 {
		return
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))

	name, err := r.screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		r.log.Error("screenshot failed", zap.Error(err))
		return
	}
	r.log.Info("screenshot saved", zap.String("file", name))
}

func (r *Renderer) setTitle(title string) {
	if title == r.title {
		return
	}
	r.title = title
	r.window.SetTitle(title)
}
