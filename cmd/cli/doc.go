// Package cli constructs the gitupdater command-line interface. It wires the
// Cobra root command, the Viper configuration loader, and zap logging, and it
// dispatches to askpass helper mode when git re-invokes the binary for a secret.
package cli
