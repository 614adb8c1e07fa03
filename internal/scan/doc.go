// Package scan walks the immediate subdirectories of a search path and reports the
// state of every git checkout it finds.
//
// Service drives the loop: it verifies git is available, inspects each
// directory, fetches remotes, reconciles every local branch against every remote
// and, when enabled, fast-forwards whichever side is behind. Results are printed
// as plain summary lines; diagnostics go to the zap logger.
package scan
