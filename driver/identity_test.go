// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"strings"
	"testing"
)

func TestNewIdentityTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	id := NewIdentity(long, "renderer", long+"tail")

	if len(id.Vendor) != MaxIdentityLen {
		t.Errorf("Vendor length = %d, want %d", len(id.Vendor), MaxIdentityLen)
	}
	if id.Renderer != "renderer" {
		t.Errorf("Renderer = %q, want unchanged", id.Renderer)
	}
	if len(id.Version) != MaxIdentityLen {
		t.Errorf("Version length = %d, want %d", len(id.Version), MaxIdentityLen)
	}
}

func TestIdentityEqualityOverTruncatedContent(t *testing.T) {
	long := strings.Repeat("v", MaxIdentityLen)
	a := NewIdentity(long+"-ignored", "NVIDIA", "4.1.0")
	b := NewIdentity(long+"-other-suffix", "NVIDIA", "4.1.0")

	if a != b {
		t.Errorf("identities differing only past %d bytes should be equal", MaxIdentityLen)
	}

	c := NewIdentity("AMD", "NVIDIA", "4.1.0")
	if a == c {
		t.Error("identities with different vendors should not be equal")
	}
}

func TestShaderStageString(t *testing.T) {
	tests := []struct {
		stage ShaderStage
		want  string
	}{
		{StageVertex, "vertex"},
		{StageFragment, "fragment"},
		{StageGeometry, "geometry"},
		{StageCompute, "compute"},
		{ShaderStage(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("ShaderStage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}
