// Package credentials relays secrets between a gitupdater run and the askpass
// helper processes git spawns on its behalf.
//
// The parent process opens a named segment, a small file in the shared memory
// directory holding a versioned YAML snapshot of request-to-secret entries.
// Helpers attach to the same segment by name. Every read and every
// read-modify-write happens under an exclusive lock on a companion file, and a
// snapshot larger than the configured segment size is rejected.
package credentials
