package gpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/osr"
)

// Context errors.
var (
	// ErrBindFailed wraps every ConnectToService failure.
	ErrBindFailed = errors.New("gpu: bind to service failed")

	// ErrContextDestroyed is returned by operations on a destroyed Context.
	ErrContextDestroyed = errors.New("gpu: context destroyed")
)

// Filter selects how a quad's texture is sampled.
type Filter uint8

// Texture filters.
const (
	FilterNearest Filter = iota
	FilterLinear
)

// Quad is one presentation primitive: a texture drawn into a rectangle of the
// output surface.
type Quad struct {
	Texture hal.TextureView
	Mailbox Mailbox

	// Transform is a column-major 4x4 matrix applied to the unit quad.
	Transform [16]float32

	// Contents is the sampled texture sub-rectangle in normalized
	// coordinates: x, y, width, height.
	Contents [4]float32

	// Bounds is the quad's extent in output pixels.
	Bounds image.Rectangle

	Opacity    float32
	Filter     Filter
	Background color.RGBA
	EdgeAAMask uint8
	Clipped    bool
	ClipRect   image.Rectangle

	// SortingContext 0 means the quad is drawn in submission order.
	SortingContext int
}

// IdentityTransform is the column-major identity matrix.
var IdentityTransform = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// surfaceQuad returns the quad presenting a whole surface of the given size.
func surfaceQuad(view hal.TextureView, mailbox Mailbox, size image.Point) Quad {
	return Quad{
		Texture:    view,
		Mailbox:    mailbox,
		Transform:  IdentityTransform,
		Contents:   [4]float32{0, 0, 1, 1},
		Bounds:     image.Rectangle{Max: size},
		Opacity:    1,
		Filter:     FilterNearest,
		Background: color.RGBA{A: 0xff},
	}
}

// Context is one view's connection to the Service. It owns the compiled
// quad shader module and render pipeline, orders work through increasing
// sync tokens and keeps the presentations the consumer has not yet
// acknowledged.
//
// Context is safe for concurrent use.
type Context struct {
	service *Service
	id      uint64

	mu        sync.Mutex
	device    Device
	queue     Queue
	module    hal.ShaderModule
	pipeline  *quadPipeline
	connected bool
	destroyed bool
	release   uint64
	size      image.Point
	scale     float64

	// pending is oldest first and never longer than the surface's slot
	// count: one entry per PendingPresent buffer.
	pending []presentation
}

// NewContext creates a disconnected context on s.
func (s *Service) NewContext() *Context {
	return &Context{service: s, id: s.contextIDs.Add(1), scale: 1}
}

// ID returns the command buffer id of the context.
func (c *Context) ID() uint64 { return c.id }

// ConnectToService binds the context to the service device and builds the
// quad shader and pipeline. It fails without retrying; callers attempt again
// on their next swap. Once connected, ConnectToService returns nil
// immediately.
func (c *Context) ConnectToService() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrContextDestroyed
	}
	if c.connected {
		return nil
	}

	device, queue, err := c.service.bind()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	code, err := c.service.shaderCode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: fmt.Sprintf("osr_quad_%d", c.id),
		Source: hal.ShaderSource{
			SPIRV: code,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create quad shader module: %w", ErrBindFailed, err)
	}
	pipeline, err := newQuadPipeline(device, module, c.service.Format())
	if err != nil {
		device.DestroyShaderModule(module)
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}

	c.device = device
	c.queue = queue
	c.module = module
	c.pipeline = pipeline
	c.connected = true
	osr.Logger().Info("gpu: context connected", "context", c.id)
	return nil
}

// Connected reports whether ConnectToService has succeeded.
func (c *Context) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Device returns the bound device, or nil before connection.
func (c *Context) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Resize records the size and scale the surface was reshaped to.
func (c *Context) Resize(size image.Point, scale float64) {
	c.mu.Lock()
	c.size = size
	c.scale = scale
	c.mu.Unlock()
}

// Size returns the size and scale last passed to Resize.
func (c *Context) Size() (image.Point, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.scale
}

// Present encodes q into target and keeps the submission until Retire.
func (c *Context) Present(target hal.TextureView, q Quad) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrContextDestroyed
	}
	if !c.connected {
		return ErrBindFailed
	}
	pr, err := c.pipeline.encode(c.queue, target, q)
	if err != nil {
		return err
	}
	c.pending = append(c.pending, pr)
	return nil
}

// Retire releases the oldest unacknowledged presentation.
func (c *Context) Retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return
	}
	c.pipeline.release(c.pending[0])
	c.pending[0] = presentation{}
	c.pending = c.pending[1:]
}

// RetireAll releases every unacknowledged presentation.
func (c *Context) RetireAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retireAll()
}

func (c *Context) retireAll() {
	for _, pr := range c.pending {
		c.pipeline.release(pr)
	}
	c.pending = nil
}

// Presented returns the quads submitted and not yet retired, oldest first.
func (c *Context) Presented() []Quad {
	c.mu.Lock()
	defer c.mu.Unlock()
	quads := make([]Quad, len(c.pending))
	for i, pr := range c.pending {
		quads[i] = pr.quad
	}
	return quads
}

// NextSyncToken issues a verified token ordered after all previous ones.
func (c *Context) NextSyncToken() SyncToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.release++
	return SyncToken{
		VerifiedFlush:   true,
		Namespace:       NamespaceGPUIO,
		CommandBufferID: c.id,
		ReleaseCount:    c.release,
	}
}

// Destroy releases pending presentations, the pipeline and the shader
// module, then disconnects. Destroy is idempotent.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.pipeline != nil {
		c.retireAll()
		c.pipeline.destroy()
	}
	if c.module != nil && c.device != nil {
		c.device.DestroyShaderModule(c.module)
	}
	c.pipeline = nil
	c.module = nil
	c.device = nil
	c.queue = nil
	c.connected = false
}
