// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package driver

// MaxIdentityLen is the maximum byte length of each identity string. Longer
// values are truncated at construction so that equality, and the fixed-width
// on-disk form, are defined over the truncated content.
const MaxIdentityLen = 127

// Identity names the driver a program binary was produced by. Binaries are
// only valid on the exact driver that produced them, so the cache compares
// the stored identity against the current one before trusting a cache file.
//
// Identity is comparable; construct it with NewIdentity so the truncation
// rule holds.
type Identity struct {
	Vendor   string
	Renderer string
	Version  string
}

// NewIdentity builds an Identity, truncating each field to MaxIdentityLen
// bytes.
func NewIdentity(vendor, renderer, version string) Identity {
	return Identity{
		Vendor:   truncate(vendor),
		Renderer: truncate(renderer),
		Version:  truncate(version),
	}
}

func truncate(s string) string {
	if len(s) > MaxIdentityLen {
		return s[:MaxIdentityLen]
	}
	return s
}

// String formats the identity for log messages.
func (id Identity) String() string {
	return id.Vendor + " / " + id.Renderer + " / " + id.Version
}
