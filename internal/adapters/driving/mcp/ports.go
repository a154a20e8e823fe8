package mcp

import (
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Search provides similarity search over chunks.
	Search driving.SearchService

	// Chat answers questions. The ask tool is only offered when set.
	Chat driving.ChatService

	// Documents lists documents and corpus stats. The related tools and
	// resources are only offered when set.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
