// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for the chat server.
//
// Provides:
//   - YAML-backed configuration with defaults and validation
//   - Concurrent-safe counters with snapshot export
//   - Named debug probes, including process-level probes
package control
