//go:build tools

// Package tools lists the development tools the console's workflow expects.
// They are installed with `go install` and stay out of the module graph.
package tools

// Air reloads the server on template and Go changes when DEV=true:
//   go install github.com/air-verse/air@v1.63.0
//
// mockgen is pinned in internal/mocks/generate.go and runs through
// `go generate ./internal/mocks`; nothing to install.
