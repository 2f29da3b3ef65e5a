// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Blueprint structure, the root container for all
// configuration loaded from a workspace's .hcl files.
//
// Why have a Blueprint?
//
// A workspace may split its declarations across many files and directories.
// The loader discovers all of them and consolidates every element into this
// single unified view, which is what enables workspace-wide analysis: the
// planner diffs the whole blueprint against the remote inventory at once,
// and the deploy dependency builder can resolve cross-references between
// elements declared in different files.
package model

import (
	"fmt"

	"github.com/vk/tenantgridgo/internal/address"
)

// Workspace holds the workspace block's settings.
type Workspace struct {
	// Families lists the object families this workspace manages. Fetch only
	// imports these; deploy only plans over these.
	Families []string
}

// DeploySettings holds the deploy block's settings.
type DeploySettings struct {
	// IncludeFeatures seeds the bundle manifest's declared feature include
	// list. The deploy loop may append to this list when the tenant reports
	// missing features.
	IncludeFeatures []string
	// ValidateOnly asks the tenant to validate the bundle without applying.
	ValidateOnly bool
}

// Blueprint is the unified, format-agnostic representation of an entire
// workspace configuration.
type Blueprint struct {
	Objects  []*ObjectElement
	Settings []*SettingsElement
	// Features is nil when the workspace declares no features block.
	Features  *FeaturesElement
	Workspace *Workspace
	Deploy    *DeploySettings
}

// Elements returns every element in the blueprint, objects first, then
// settings, then the features element if present.
func (b *Blueprint) Elements() []Element {
	out := make([]Element, 0, len(b.Objects)+len(b.Settings)+1)
	for _, o := range b.Objects {
		out = append(out, o)
	}
	for _, s := range b.Settings {
		out = append(out, s)
	}
	if b.Features != nil {
		out = append(out, b.Features)
	}
	return out
}

// ElementAt looks up an element by root address.
func (b *Blueprint) ElementAt(addr address.Address) (Element, bool) {
	for _, el := range b.Elements() {
		if el.Addr().Equal(addr.Root()) {
			return el, true
		}
	}
	return nil, false
}

// Validate checks blueprint-level invariants that do not depend on the
// family registry: unique addresses and unique object keys.
func (b *Blueprint) Validate() error {
	seenAddr := make(map[string]bool)
	seenKey := make(map[string]string)
	for _, el := range b.Elements() {
		addr := el.Addr().String()
		if seenAddr[addr] {
			return fmt.Errorf("duplicate element address %q", addr)
		}
		seenAddr[addr] = true

		obj, ok := el.(*ObjectElement)
		if !ok {
			continue
		}
		if obj.Key == "" {
			return fmt.Errorf("object %q has an empty key", addr)
		}
		if other, dup := seenKey[obj.Key]; dup {
			return fmt.Errorf("objects %q and %q share the key %q", other, addr, obj.Key)
		}
		seenKey[obj.Key] = addr
	}
	return nil
}
