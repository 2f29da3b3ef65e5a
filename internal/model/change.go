// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Change, the unit of work flowing through the deploy
// pipeline.
//
// Why is removal missing from ChangeKind?
//
// The tenant applies deletions through a separate, non-bundled endpoint with
// its own ordering rules, so the bundle deploy pipeline never sees them. The
// planner therefore only ever emits additions and modifications.
package model

import "github.com/vk/tenantgridgo/internal/address"

// ChangeKind discriminates how a change mutates its target element.
type ChangeKind int

const (
	// Addition creates an object that does not yet exist on the tenant.
	// Only additions introduce ordering dependencies between changes.
	Addition ChangeKind = iota
	// Modification updates an object that already exists on the tenant.
	Modification
)

// String returns the lowercase kind name for logs.
func (k ChangeKind) String() string {
	if k == Addition {
		return "addition"
	}
	return "modification"
}

// Change is a single proposed mutation of one addressable element. Changes
// are produced by the planner and treated as immutable by the deploy
// pipeline; only their membership in the working batch varies.
type Change struct {
	// Addr identifies the changed element. A change may address a nested
	// part of an object (a sub-change); it then shares its root element's
	// graph node and batch fate.
	Addr address.Address
	// Key is the target object's stable tenant-side identifier; empty for
	// settings and features changes.
	Key string
	// Kind says whether the target is being created or updated.
	Kind ChangeKind
	// Desired is the element's full desired state.
	Desired Element
	// Prior is the element's last known remote state, recorded by the
	// planner for modifications. It is nil for additions. The deploy
	// pipeline needs it to recompute the feature toggle delta after a
	// partial features failure.
	Prior Element
}

// RootAddr folds a sub-change address down to the root element address that
// owns its graph node.
func (c Change) RootAddr() address.Address {
	return c.Addr.Root()
}

// IsSubChange reports whether the change addresses a nested part of an
// object rather than the object itself.
func (c Change) IsSubChange() bool {
	return !c.Addr.IsRoot()
}
