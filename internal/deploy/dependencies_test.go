package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tenantgridgo/internal/address"
	"github.com/vk/tenantgridgo/internal/model"
	"github.com/vk/tenantgridgo/internal/serializer"
	"github.com/zclconf/go-cty/cty"
)

// objectChange builds a change over a script object whose "source"
// attribute may embed references to other objects.
func objectChange(name, key string, kind model.ChangeKind, source string) model.Change {
	el := &model.ObjectElement{
		Family: "script",
		Name:   name,
		Key:    key,
		Attributes: cty.ObjectVal(map[string]cty.Value{
			"source": cty.StringVal(source),
		}),
	}
	return model.Change{
		Addr:    el.Addr(),
		Key:     key,
		Kind:    kind,
		Desired: el,
	}
}

func settingsChange(configType string) model.Change {
	el := &model.SettingsElement{
		ConfigType: configType,
		Attributes: cty.ObjectVal(map[string]cty.Value{"flag": cty.BoolVal(true)}),
	}
	return model.Change{Addr: el.Addr(), Kind: model.Modification, Desired: el}
}

func featuresChange(before, after map[string]bool) model.Change {
	return model.Change{
		Addr:    address.Features(),
		Kind:    model.Modification,
		Desired: &model.FeaturesElement{Enabled: after},
		Prior:   &model.FeaturesElement{Enabled: before},
	}
}

func TestBuildDependencies_Edges(t *testing.T) {
	ctx := context.Background()

	t.Run("reference to an addition creates an edge", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "plain")
		b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]")

		deps, err := BuildDependencies(ctx, []model.Change{a, b}, serializer.New())
		require.NoError(t, err)

		dependents := deps.Graph.TransitiveDependents("object.script.a")
		require.Len(t, dependents, 2)
		assert.Equal(t, "object.script.a", dependents[0].Addr)
		assert.Equal(t, "object.script.b", dependents[1].Addr)
	})

	t.Run("reference to a modification creates no edge", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Modification, "plain")
		b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_a]")

		deps, err := BuildDependencies(ctx, []model.Change{a, b}, serializer.New())
		require.NoError(t, err)

		dependents := deps.Graph.TransitiveDependents("object.script.a")
		require.Len(t, dependents, 1)
		assert.Equal(t, "object.script.a", dependents[0].Addr)
	})

	t.Run("reference to an absent object creates no edge but lands in the map", func(t *testing.T) {
		b := objectChange("b", "custscript_b", model.Addition, "calls [ref=custscript_elsewhere]")

		deps, err := BuildDependencies(ctx, []model.Change{b}, serializer.New())
		require.NoError(t, err)

		assert.Equal(t, []string{"custscript_elsewhere"}, deps.Map["object.script.b"])
		assert.Len(t, deps.Graph.TransitiveDependents("object.script.b"), 1)
	})

	t.Run("self reference is ignored", func(t *testing.T) {
		a := objectChange("a", "custscript_a", model.Addition, "recursive [ref=custscript_a]")

		deps, err := BuildDependencies(ctx, []model.Change{a}, serializer.New())
		require.NoError(t, err)
		assert.Len(t, deps.Graph.TransitiveDependents("object.script.a"), 1)
	})
}

func TestBuildDependencies_Map(t *testing.T) {
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	b := objectChange("b", "custscript_b", model.Addition,
		"uses [ref=custscript_a] and [ref=custform_f] and again [ref=custscript_a]")

	deps, err := BuildDependencies(context.Background(), []model.Change{a, b}, serializer.New())
	require.NoError(t, err)

	assert.Empty(t, deps.Map["object.script.a"])
	assert.Equal(t, []string{"custscript_a", "custform_f"}, deps.Map["object.script.b"])
}

func TestBuildDependencies_SubChangesFold(t *testing.T) {
	root := objectChange("a", "custscript_a", model.Modification, "plain")
	sub := root
	sub.Addr = address.Address{Path: []string{"object", "script", "a", "params"}}
	sub.Kind = model.Addition

	deps, err := BuildDependencies(context.Background(), []model.Change{root, sub}, serializer.New())
	require.NoError(t, err)

	// One node for both changes, and the Addition kind won.
	assert.Equal(t, 1, deps.Graph.Len())
	node, ok := deps.Graph.FindByKey("object.script.a")
	require.True(t, ok)
	assert.Equal(t, model.Addition, node.Kind)
}

func TestBuildDependencies_SecondaryIndex(t *testing.T) {
	a := objectChange("a", "custscript_a", model.Addition, "plain")
	s := settingsChange("accounting_prefs")

	deps, err := BuildDependencies(context.Background(), []model.Change{a, s}, serializer.New())
	require.NoError(t, err)

	node, ok := deps.Graph.FindByField("custscript_a")
	require.True(t, ok)
	assert.Equal(t, "object.script.a", node.Addr)

	// Settings nodes carry no key and are absent from the secondary index.
	_, ok = deps.Graph.FindByField("")
	assert.False(t, ok)
}
