package mcp

import (
	"github.com/custodia-labs/codetutor/internal/adapters/driving/handle"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server needs.
type Ports struct {
	// Index holds the loaded index handle.
	Index *handle.Holder

	// Retrieval finds passages for the retrieve tool.
	Retrieval driving.RetrievalService

	// Answer generates grounded answers for the ask tool.
	// Optional; without it only retrieve is offered.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndex
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
