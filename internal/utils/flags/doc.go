// Package flags provides pflag values shared by the gitupdater command line:
// yes/no toggles and usage strings that highlight the default of a fixed choice.
package flags
