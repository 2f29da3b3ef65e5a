package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/tenantgridgo/internal/app"
)

// HarnessResult holds the outcomes of an integration test run. LogOutput
// carries everything the app wrote, logs and user-facing summary lines
// alike, since both share one writer.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest runs the full application against a fake tenant: it
// writes the given blueprint files into a temporary directory, points the
// credential environment at the server, builds the app, and executes the
// configured action. Startup panics are recovered into Err, matching the
// behavior of cmd/cli.
func RunIntegrationTest(t *testing.T, files map[string]string, server *FakeTenant, configure func(*app.Config)) *HarnessResult {
	t.Helper()

	endpoint := server.Start()
	t.Cleanup(server.Close)

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	t.Setenv("TENANTGRID_ENDPOINT", endpoint)
	t.Setenv("TENANTGRID_ACCOUNT", "acme-test")
	t.Setenv("TENANTGRID_TOKEN", "test-token")

	cfg := app.Config{
		BlueprintPath: tmpDir,
		Action:        app.ActionPlan,
		LogLevel:      "debug",
		LogFormat:     "text",
	}
	if configure != nil {
		configure(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(context.Background())

	if os.Getenv("TGGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
