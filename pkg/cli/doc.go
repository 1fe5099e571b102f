// Package cli provides the httptape command-line interface for inspecting
// fixture trees:
//   - fingerprint: print the fixture path a request maps to
//   - ls: list the fixtures below a directory
//   - show: decode one fixture
//   - resolve: report which stack entry would answer a request
//   - layers: list the layers of a vignette
//   - validate: check an httptape configuration file
//   - version: show httptape version
//
// Every command accepts --json for machine-readable output.
package cli
