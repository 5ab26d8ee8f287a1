// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
)

// CommandBufferNamespace identifies the command stream a sync token orders.
type CommandBufferNamespace int8

// Command buffer namespaces.
const (
	NamespaceInvalid CommandBufferNamespace = iota - 1
	NamespaceGPUIO
	NamespaceInProcess
	NamespaceSkiaOutputSurface
	NamespaceSkiaOutputSurfaceNonDDL
)

// String returns the namespace name.
func (n CommandBufferNamespace) String() string {
	switch n {
	case NamespaceGPUIO:
		return "gpu-io"
	case NamespaceInProcess:
		return "in-process"
	case NamespaceSkiaOutputSurface:
		return "skia-output-surface"
	case NamespaceSkiaOutputSurfaceNonDDL:
		return "skia-output-surface-non-ddl"
	default:
		return "invalid"
	}
}

// MailboxNameSize is the length of a mailbox name in bytes.
const MailboxNameSize = 16

// Mailbox is an opaque handle naming a GPU-resident texture shared across
// execution domains. Mailboxes are compared by value.
type Mailbox struct {
	Name        [MailboxNameSize]byte
	SharedImage bool
}

// IsZero reports whether m names no texture.
func (m Mailbox) IsZero() bool {
	return m == Mailbox{}
}

// String returns a short hex form of the name.
func (m Mailbox) String() string {
	return fmt.Sprintf("mailbox:%x", m.Name[:8])
}

// newMailbox derives a unique mailbox name from a context id, a slot index
// and a generation counter.
func newMailbox(context uint64, slot int, generation uint32) Mailbox {
	var m Mailbox
	binary.LittleEndian.PutUint64(m.Name[0:8], context)
	binary.LittleEndian.PutUint32(m.Name[8:12], uint32(slot)) //nolint:gosec // G115: slot count is tiny
	binary.LittleEndian.PutUint32(m.Name[12:16], generation)
	m.SharedImage = true
	return m
}

// SyncToken is a command-stream ordering marker. A consumer must wait on the
// token before sampling the texture named by the accompanying mailbox.
type SyncToken struct {
	VerifiedFlush   bool
	Namespace       CommandBufferNamespace
	CommandBufferID uint64
	ReleaseCount    uint64
}

// IsZero reports whether t is the empty token (nothing to wait on).
func (t SyncToken) IsZero() bool {
	return t == SyncToken{}
}

// HasData reports whether t orders anything.
func (t SyncToken) HasData() bool {
	return t.Namespace != NamespaceInvalid && t.ReleaseCount != 0
}
