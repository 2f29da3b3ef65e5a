package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires a blueprint path", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfig(Config{})
		assert.ErrorContains(t, err, "BlueprintPath")
	})

	t.Run("defaults the action to plan", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfig(Config{BlueprintPath: "workspace/"})
		require.NoError(t, err)
		assert.Equal(t, ActionPlan, cfg.Action)
	})

	t.Run("rejects unknown actions", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfig(Config{BlueprintPath: "workspace/", Action: "destroy"})
		assert.ErrorContains(t, err, "unknown action")
	})

	t.Run("defaults the worker count", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfig(Config{BlueprintPath: "workspace/", WorkerCount: 0})
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.WorkerCount)
	})

	t.Run("defaults the profiles path only when a profile is set", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewConfig(Config{BlueprintPath: "workspace/", Profile: "sandbox"})
		require.NoError(t, err)
		assert.Equal(t, "profiles.yaml", cfg.ProfilesPath)

		cfg, err = NewConfig(Config{BlueprintPath: "workspace/"})
		require.NoError(t, err)
		assert.Empty(t, cfg.ProfilesPath)
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warn").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "INFO", parseLevel("info").String())
	assert.Equal(t, "INFO", parseLevel("anything-else").String())
}
