// Package cmd implements the command-line interface for the a2a token
// record store. It provides a hierarchical command structure with operations
// for running the API server and managing the store file directly.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the API server
//   - token: Commands for local store operations (list, get, set, disable, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See a2a -help for a list of all commands.
package cmd
