// Package cli provides the command-line interface for contractmock.
//
// Commands:
//   - serve: run the mock provider with interactions loaded from YAML,
//     optionally exposing Prometheus metrics, until SIGINT or SIGTERM
//   - resolve: print the body matcher a content type resolves to
//   - validate: check interaction files without starting a server
//   - version: show build information
//
// All commands accept --config to read a YAML configuration file.
package cli
