// Package mcp provides an MCP (Model Context Protocol) server adapter for codetutor.
// It lets AI assistants ask grounded questions about an indexed document
// and retrieve the passages behind the answers.
package mcp

import "errors"

// Port validation errors.
var (
	// ErrMissingIndex is returned when no index holder is provided.
	ErrMissingIndex = errors.New("mcp: index holder is required")

	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
)
