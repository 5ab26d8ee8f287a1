package gpu

import (
	_ "embed"
)

// quadShaderWGSL draws a surface texture as a single transformed quad.
//
//go:embed shaders/quad.wgsl
var quadShaderWGSL string

// Shader entry points.
const (
	quadVertexEntry   = "vs_main"
	quadFragmentEntry = "fs_main"
)
