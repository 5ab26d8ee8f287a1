// Package gpu manages the off-screen GPU surfaces of the compositor.
//
// A Service binds to a host GPU device through gpucontext.DeviceProvider.
// Each view owns a Context connected to the service and a Surface backed by
// a BufferQueue of two or three textures. SwapBuffers presents the current
// texture by encoding a full-surface Quad through the context's render
// pipeline and hands the caller a Frame: the texture's Mailbox plus the
// SyncToken a consumer must wait on.
//
// Neither the service nor the surfaces create a device of their own. The
// provider must implement HalDevice() any and HalQueue() any returning
// values whose methods satisfy Device and Queue.
package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Service errors.
var (
	// ErrNilProvider is returned when NewService gets a nil provider.
	ErrNilProvider = errors.New("gpu: nil DeviceProvider")

	// ErrNotInitialized is returned when a context connects before Init.
	ErrNotInitialized = errors.New("gpu: service not initialized")

	// ErrServiceShutdown is returned when a context connects after Shutdown.
	ErrServiceShutdown = errors.New("gpu: service is shut down")

	// ErrNoHalDevice is returned when the provider exposes no usable device.
	ErrNoHalDevice = errors.New("gpu: provider has no HAL device")

	// ErrNoHalQueue is returned when the provider exposes no usable queue.
	ErrNoHalQueue = errors.New("gpu: provider has no HAL queue")
)

// Device is the subset of hal.Device the surfaces and the quad pipeline use.
type Device interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(view hal.TextureView)
	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)
	DestroyShaderModule(module hal.ShaderModule)

	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
	CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error)
	DestroySampler(sampler hal.Sampler)
	CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error)
	DestroyBindGroupLayout(layout hal.BindGroupLayout)
	CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error)
	DestroyBindGroup(group hal.BindGroup)
	CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error)
	DestroyPipelineLayout(layout hal.PipelineLayout)
	CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error)
	DestroyRenderPipeline(pipeline hal.RenderPipeline)
	CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error)
	FreeCommandBuffer(cmdBuffer hal.CommandBuffer)
}

// Queue is the subset of hal.Queue the quad pipeline submits through.
type Queue interface {
	Submit(commandBuffers []hal.CommandBuffer) (uint64, error)
	WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error
}

// halProvider is implemented by providers that expose the raw HAL device
// and queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Service is the process-wide GPU binding shared by all views.
//
// Service is safe for concurrent use.
type Service struct {
	provider gpucontext.DeviceProvider

	// compile turns WGSL into SPIR-V bytes.
	compile func(source string) ([]byte, error)

	mu          sync.Mutex
	initialized bool
	shutdown    bool
	device      Device
	queue       Queue
	spirv       []uint32

	contextIDs atomic.Uint64
}

// NewService creates a service over provider. The service is idle until Init.
func NewService(provider gpucontext.DeviceProvider, opts ...ServiceOption) (*Service, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	s := &Service{provider: provider, compile: naga.Compile}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithShaderCompiler replaces the WGSL to SPIR-V compiler. The default is
// naga.Compile.
func WithShaderCompiler(compile func(source string) ([]byte, error)) ServiceOption {
	return func(s *Service) {
		if compile != nil {
			s.compile = compile
		}
	}
}

// Init marks the service ready to accept connections. Init is idempotent and
// fails only after Shutdown.
func (s *Service) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return ErrServiceShutdown
	}
	s.initialized = true
	return nil
}

// Initialized reports whether Init succeeded and Shutdown has not run.
func (s *Service) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized && !s.shutdown
}

// Format returns the texture format of presented surfaces.
func (s *Service) Format() gputypes.TextureFormat {
	if f := s.provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		return f
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// bind resolves the HAL device and queue, caching them for later
// connections.
func (s *Service) bind() (Device, Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return nil, nil, ErrServiceShutdown
	}
	if !s.initialized {
		return nil, nil, ErrNotInitialized
	}
	if s.device != nil {
		return s.device, s.queue, nil
	}

	hp, ok := s.provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("%w: provider does not implement HalDevice and HalQueue", ErrNoHalDevice)
	}
	device, ok := hp.HalDevice().(Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHalDevice, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHalQueue, hp.HalQueue())
	}
	s.device = device
	s.queue = queue
	return device, queue, nil
}

// shaderCode returns the SPIR-V of the quad shader, compiling it on first use.
// A failed compile is not cached.
func (s *Service) shaderCode() ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spirv != nil {
		return s.spirv, nil
	}
	code, err := compileSPIRV(s.compile, quadShaderWGSL)
	if err != nil {
		return nil, err
	}
	s.spirv = code
	return code, nil
}

// Shutdown drops the device binding. The device itself belongs to the host
// and is not destroyed. Shutdown is idempotent.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	s.device = nil
	s.queue = nil
	s.spirv = nil
}

// compileSPIRV compiles WGSL and repacks the little-endian bytes as words.
func compileSPIRV(compile func(string) ([]byte, error), source string) ([]uint32, error) {
	b, err := compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile quad shader: %w", err)
	}
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("gpu: compile quad shader: invalid SPIR-V length %d", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}
