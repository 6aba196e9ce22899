// Package paths centralizes file system path resolution for membank.
//
// It wraps the XDG base directory lookups used for configuration, backups,
// and the state database, and resolves memory bank directories supplied on
// the command line.
package paths
