// Package cli parses command-line arguments into the application's
// configuration: the blueprint path, the action to run, connection profile
// selection and logging options. It also owns process-level concerns like
// exit codes.
package cli
