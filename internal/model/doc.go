// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the format-agnostic, in-memory representation of a
// tenant workspace. Its core purpose is to decouple the rest of the system
// from the HCL blueprint format on one side and from the tenant wire format
// on the other.
//
// # Core Concepts
//
// The model is built around a few key structures:
//
//   - Element: the canonical form of one addressable tenant customization
//     object. Three concrete kinds exist: ObjectElement (keyed objects such
//     as scripts, forms, saved queries), SettingsElement (per-configuration-type
//     preference bundles) and FeaturesElement (the single account feature
//     toggle map).
//
//   - Change: a single proposed mutation (addition or modification) of one
//     addressable element, produced by the planner and consumed by the deploy
//     pipeline. Changes are immutable once planned; only their membership in
//     a deploy batch varies.
//
//   - Blueprint: the fully loaded local configuration — every element declared
//     across the workspace's .hcl files plus the workspace and deploy blocks.
//
// Why a separate model package?
//
// internal/blueprint translates HCL into this model, internal/serializer
// translates the model into canonical tenant documents, and the planner and
// deploy pipeline operate purely on the model. Keeping the model free of
// hcl.Body and json.RawMessage values means those stages never need to know
// where an element came from.
package model
