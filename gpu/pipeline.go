package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// quadUniformSize is the std140 size of QuadUniforms in quad.wgsl:
// mat4x4 transform (64), vec4 contents (16), f32 opacity padded to the
// vec3 pad at offset 96, rounded up to 112.
const quadUniformSize = 112

// quadVertexCount is the two triangles generated from vertex_index.
const quadVertexCount = 6

// quadPipeline draws one textured quad per render pass. It is built once per
// Context from the context's shader module.
//
// Bind group layout (group 0), matching quad.wgsl:
//
//	binding 0: texture_2d<f32>   surface texture
//	binding 1: sampler           nearest or linear
//	binding 2: uniform buffer    QuadUniforms
type quadPipeline struct {
	device Device

	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	uniforms   hal.Buffer

	// samplers is indexed by Filter.
	samplers [2]hal.Sampler
}

// newQuadPipeline creates the pipeline objects for module rendering into
// targets of the given format. On failure everything created so far is
// destroyed.
func newQuadPipeline(device Device, module hal.ShaderModule, format gputypes.TextureFormat) (*quadPipeline, error) {
	p := &quadPipeline{device: device}
	if err := p.build(module, format); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *quadPipeline) build(module hal.ShaderModule, format gputypes.TextureFormat) error {
	var err error
	p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "osr_quad_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create quad bind group layout: %w", err)
	}

	p.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "osr_quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create quad pipeline layout: %w", err)
	}

	for f, mode := range [2]gputypes.FilterMode{
		FilterNearest: gputypes.FilterModeNearest,
		FilterLinear:  gputypes.FilterModeLinear,
	} {
		p.samplers[f], err = p.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        fmt.Sprintf("osr_quad_sampler_%d", f),
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    mode,
			MinFilter:    mode,
			MipmapFilter: gputypes.FilterModeNearest,
		})
		if err != nil {
			return fmt.Errorf("gpu: create quad sampler: %w", err)
		}
	}

	p.uniforms, err = p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "osr_quad_uniforms",
		Size:  quadUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create quad uniform buffer: %w", err)
	}

	premul := gputypes.BlendStatePremultiplied()
	p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "osr_quad_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: quadVertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: quadFragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &premul,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create quad pipeline: %w", err)
	}
	return nil
}

// presentation is one submitted quad draw. Its bind group and command buffer
// stay alive until the consumer acknowledges the frame.
type presentation struct {
	quad       Quad
	bindGroup  hal.BindGroup
	cmdBuf     hal.CommandBuffer
	submission uint64
}

// encode records and submits a render pass drawing q into target.
func (p *quadPipeline) encode(queue Queue, target hal.TextureView, q Quad) (presentation, error) {
	if err := queue.WriteBuffer(p.uniforms, 0, quadUniforms(q)); err != nil {
		return presentation{}, fmt.Errorf("gpu: write quad uniforms: %w", err)
	}

	filter := q.Filter
	if int(filter) >= len(p.samplers) {
		filter = FilterNearest
	}
	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "osr_quad_bind_group",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: q.Texture.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: p.samplers[filter].NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Size: quadUniformSize}},
		},
	})
	if err != nil {
		return presentation{}, fmt.Errorf("gpu: create quad bind group: %w", err)
	}

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "osr_present"})
	if err != nil {
		p.device.DestroyBindGroup(bindGroup)
		return presentation{}, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("osr_present"); err != nil {
		p.device.DestroyBindGroup(bindGroup)
		return presentation{}, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	bg := q.Background
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "osr_present_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    target,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(bg.R) / 255,
				G: float64(bg.G) / 255,
				B: float64(bg.B) / 255,
				A: float64(bg.A) / 255,
			},
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(quadVertexCount, 1, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		p.device.DestroyBindGroup(bindGroup)
		return presentation{}, fmt.Errorf("gpu: end encoding: %w", err)
	}
	idx, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		p.device.FreeCommandBuffer(cmdBuf)
		p.device.DestroyBindGroup(bindGroup)
		return presentation{}, fmt.Errorf("gpu: submit present: %w", err)
	}
	return presentation{quad: q, bindGroup: bindGroup, cmdBuf: cmdBuf, submission: idx}, nil
}

// release frees the per-frame resources of a retired presentation.
func (p *quadPipeline) release(pr presentation) {
	if pr.cmdBuf != nil {
		p.device.FreeCommandBuffer(pr.cmdBuf)
	}
	if pr.bindGroup != nil {
		p.device.DestroyBindGroup(pr.bindGroup)
	}
}

// destroy releases the pipeline objects in reverse creation order.
func (p *quadPipeline) destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.uniforms != nil {
		p.device.DestroyBuffer(p.uniforms)
		p.uniforms = nil
	}
	for i, s := range p.samplers {
		if s != nil {
			p.device.DestroySampler(s)
			p.samplers[i] = nil
		}
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
}

// quadUniforms packs q into the QuadUniforms layout.
func quadUniforms(q Quad) []byte {
	b := make([]byte, quadUniformSize)
	for i, v := range q.Transform {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	for i, v := range q.Contents {
		binary.LittleEndian.PutUint32(b[64+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(b[80:], math.Float32bits(q.Opacity))
	return b
}
