// Package cli constructs the grouplift command-line interface, wiring the
// Cobra command hierarchy, configuration loader, administration gateway
// client, and structured logging primitives. It exposes helpers to build
// reusable application instances and to execute the default command set.
package cli
