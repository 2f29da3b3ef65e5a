package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tenantgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tenantgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
TenantGridGo - A declarative configuration sync tool for SaaS tenants.

Usage:
  tenantgridgo [options] [BLUEPRINT_PATH]

Arguments:
  BLUEPRINT_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	blueprintFlag := flagSet.String("blueprint", "", "Path to the blueprint file or directory.")
	bFlag := flagSet.String("b", "", "Path to the blueprint file or directory (shorthand).")
	actionFlag := flagSet.String("action", "plan", "Action to run. Options: 'deploy', 'fetch', 'plan', 'validate'.")
	profileFlag := flagSet.String("profile", "", "Named connection profile to use.")
	profilesPathFlag := flagSet.String("profiles-path", "", "Path to the profiles file. Defaults to 'profiles.yaml'.")
	envFileFlag := flagSet.String("env-file", "", "Path to a .env file with tenant credentials.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for fetch imports.")
	validateOnlyFlag := flagSet.Bool("validate-only", false, "Submit deploy bundles in validate-only mode.")
	streamFlag := flagSet.Bool("stream", false, "Subscribe to the live deploy progress stream.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *blueprintFlag != "" {
		path = *blueprintFlag
	} else if *bFlag != "" {
		path = *bFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Blueprint path determined.", "path", path)

	if path == "" {
		slog.Debug("No blueprint path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		BlueprintPath:   path,
		Action:          strings.ToLower(*actionFlag),
		Profile:         *profileFlag,
		ProfilesPath:    *profilesPathFlag,
		EnvFile:         *envFileFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		WorkerCount:     *workersFlag,
		ValidateOnly:    *validateOnlyFlag,
		Stream:          *streamFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
