package gpu

import (
	"errors"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider and exposes a HAL
// device and queue.
type mockProvider struct {
	format gputypes.TextureFormat
	hal    any
	queue  any
}

func newMockProvider(dev *mockHALDevice) *mockProvider {
	return &mockProvider{format: gputypes.TextureFormatBGRA8Unorm, hal: dev, queue: &mockHALQueue{}}
}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (m *mockProvider) HalDevice() any                        { return m.hal }
func (m *mockProvider) HalQueue() any                         { return m.queue }

// mockHALQueue counts submissions on top of the noop queue.
type mockHALQueue struct {
	noop.Queue

	submits int32
}

func (q *mockHALQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	atomic.AddInt32(&q.submits, 1)
	return q.Queue.Submit(cmds)
}

// mockHALDevice is a test double for the Device subset of hal.Device. Calls
// it does not count fall through to the noop backend.
type mockHALDevice struct {
	noop.Device

	failTextures bool
	failShaders  bool

	texturesCreated   int32
	texturesDestroyed int32
	viewsCreated      int32
	viewsDestroyed    int32
	shadersCreated    int32
	shadersDestroyed  int32
	pipelinesCreated  int32
	bindGroupsCreated int32
	bindGroupsLive    int32
	cmdBufsFreed      int32
	draws             int32
	lastVertexCount   uint32
	nextHandle        uintptr

	lastTexture   *hal.TextureDescriptor
	lastBindGroup *hal.BindGroupDescriptor
	lastPass      *hal.RenderPassDescriptor
	filters       map[uintptr]gputypes.FilterMode
}

var errMock = errors.New("mock failure")

func (d *mockHALDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.failTextures {
		return nil, errMock
	}
	atomic.AddInt32(&d.texturesCreated, 1)
	d.lastTexture = desc
	return &mockHALTexture{width: desc.Size.Width, height: desc.Size.Height}, nil
}

func (d *mockHALDevice) DestroyTexture(texture hal.Texture) {
	atomic.AddInt32(&d.texturesDestroyed, 1)
	if t, ok := texture.(*mockHALTexture); ok {
		t.destroyed = true
	}
}

func (d *mockHALDevice) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	atomic.AddInt32(&d.viewsCreated, 1)
	d.nextHandle++
	return &mockHALTextureView{texture: texture, label: desc.Label, handle: d.nextHandle}, nil
}

func (d *mockHALDevice) DestroyTextureView(view hal.TextureView) {
	atomic.AddInt32(&d.viewsDestroyed, 1)
}

//nolint:nilnil // Mock: the module value is never used.
func (d *mockHALDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if d.failShaders {
		return nil, errMock
	}
	atomic.AddInt32(&d.shadersCreated, 1)
	return nil, nil
}

func (d *mockHALDevice) DestroyShaderModule(module hal.ShaderModule) {
	atomic.AddInt32(&d.shadersDestroyed, 1)
}

func (d *mockHALDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	atomic.AddInt32(&d.pipelinesCreated, 1)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *mockHALDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	d.nextHandle++
	if d.filters == nil {
		d.filters = make(map[uintptr]gputypes.FilterMode)
	}
	d.filters[d.nextHandle] = desc.MagFilter
	return &mockHALTextureView{label: desc.Label, handle: d.nextHandle}, nil
}

func (d *mockHALDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	atomic.AddInt32(&d.bindGroupsCreated, 1)
	atomic.AddInt32(&d.bindGroupsLive, 1)
	d.lastBindGroup = desc
	return d.Device.CreateBindGroup(desc)
}

func (d *mockHALDevice) DestroyBindGroup(hal.BindGroup) {
	atomic.AddInt32(&d.bindGroupsLive, -1)
}

func (d *mockHALDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &mockEncoder{CommandEncoder: enc, dev: d}, nil
}

func (d *mockHALDevice) FreeCommandBuffer(hal.CommandBuffer) {
	atomic.AddInt32(&d.cmdBufsFreed, 1)
}

// mockEncoder records the render passes it begins.
type mockEncoder struct {
	hal.CommandEncoder
	dev *mockHALDevice
}

func (e *mockEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.dev.lastPass = desc
	return &mockRenderPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), dev: e.dev}
}

// mockRenderPass counts draws.
type mockRenderPass struct {
	hal.RenderPassEncoder
	dev *mockHALDevice
}

func (p *mockRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	atomic.AddInt32(&p.dev.draws, 1)
	p.dev.lastVertexCount = vertexCount
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// boundView returns the texture view handle of the last bind group.
func (d *mockHALDevice) boundView() uintptr {
	if d.lastBindGroup == nil {
		return 0
	}
	for _, e := range d.lastBindGroup.Entries {
		if v, ok := e.Resource.(gputypes.TextureViewBinding); ok {
			return v.TextureView
		}
	}
	return 0
}

// boundFilter returns the filter of the sampler in the last bind group.
func (d *mockHALDevice) boundFilter() gputypes.FilterMode {
	if d.lastBindGroup == nil {
		return 0
	}
	for _, e := range d.lastBindGroup.Entries {
		if s, ok := e.Resource.(gputypes.SamplerBinding); ok {
			return d.filters[s.Sampler]
		}
	}
	return 0
}

// live returns textures created and not yet destroyed.
func (d *mockHALDevice) live() int32 {
	return atomic.LoadInt32(&d.texturesCreated) - atomic.LoadInt32(&d.texturesDestroyed)
}

type mockHALTexture struct {
	noop.Texture

	width     uint32
	height    uint32
	destroyed bool
}

func (t *mockHALTexture) Destroy()              {}
func (t *mockHALTexture) NativeHandle() uintptr { return 0 }

type mockHALTextureView struct {
	texture hal.Texture
	label   string
	handle  uintptr
}

func (v *mockHALTextureView) Destroy()              {}
func (v *mockHALTextureView) NativeHandle() uintptr { return v.handle }

// fakeCompile returns a valid-length SPIR-V blob without invoking naga.
func fakeCompile(string) ([]byte, error) {
	return []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}, nil
}

// newTestService returns an initialized service over dev.
func newTestService(dev *mockHALDevice) *Service {
	s, err := NewService(newMockProvider(dev))
	if err != nil {
		panic(err)
	}
	s.compile = fakeCompile
	if err := s.Init(); err != nil {
		panic(err)
	}
	return s
}
