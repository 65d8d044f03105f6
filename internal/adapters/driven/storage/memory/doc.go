// Package memory provides in-memory implementations of the driven storage
// ports. They back tests and the "memory" index backend, which keeps an
// index for the lifetime of the process only.
package memory
