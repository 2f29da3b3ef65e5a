// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Element interface and its three concrete kinds.
//
// Why an interface?
//
// Objects, settings and features share almost nothing structurally — objects
// carry a stable key and a typed attribute set, settings are addressed by
// their configuration type, and the features element is a flat toggle map —
// but every pipeline stage needs to treat "one addressable thing" uniformly:
// serialize it, digest it, put it in a change. The Element interface is that
// minimal common surface.
package model

import (
	"sort"

	"github.com/vk/tenantgridgo/internal/address"
	"github.com/zclconf/go-cty/cty"
)

// Element is the canonical in-memory form of one addressable tenant
// customization object.
type Element interface {
	// Addr returns the element's unique address within the workspace.
	Addr() address.Address
}

// ObjectElement is a keyed customization object: a script, form, saved
// query, workflow or custom record type.
type ObjectElement struct {
	// Family is the object family name, e.g. "script" or "form".
	Family string
	// Name is the local blueprint name, unique within the family.
	Name string
	// Key is the stable tenant-side identifier, e.g. "custscript_rollup".
	// Failure reports from the tenant reference objects by this key.
	Key string
	// Attributes holds the object's desired state as a cty object value,
	// shaped by the family's registered attribute type.
	Attributes cty.Value
}

// Addr implements Element.
func (e *ObjectElement) Addr() address.Address {
	return address.Object(e.Family, e.Name)
}

// SettingsElement is a per-configuration-type preference bundle, e.g. the
// accounting preferences page. Settings have no object key; the tenant
// addresses them by configuration type name.
type SettingsElement struct {
	// ConfigType is the configuration type name, e.g. "accounting_prefs".
	ConfigType string
	// Attributes holds the settings values as a cty object value.
	Attributes cty.Value
}

// Addr implements Element.
func (e *SettingsElement) Addr() address.Address {
	return address.Settings(e.ConfigType)
}

// FeaturesElement is the single account feature toggle map. A blueprint
// declares at most one.
type FeaturesElement struct {
	// Enabled maps feature id to its desired on/off state. Features absent
	// from the map are left untouched on the tenant.
	Enabled map[string]bool
}

// Addr implements Element.
func (e *FeaturesElement) Addr() address.Address {
	return address.Features()
}

// FeatureIDs returns the toggled feature ids in sorted order.
func (e *FeaturesElement) FeatureIDs() []string {
	ids := make([]string, 0, len(e.Enabled))
	for id := range e.Enabled {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
