package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for codetutor resources.
	uriScheme = "codetutor://"

	manifestURI = uriScheme + "index/manifest"
)

// manifestInfo is the JSON shape of the manifest resource.
type manifestInfo struct {
	Location    string    `json:"location"`
	Model       string    `json:"model"`
	Dimension   int       `json:"dimension"`
	Count       int       `json:"count"`
	DocumentURI string    `json:"document_uri"`
	ChunkSize   int       `json:"chunk_size"`
	Overlap     int       `json:"overlap"`
	CreatedAt   time.Time `json:"created_at"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         manifestURI,
		Name:        "index-manifest",
		Description: "Build metadata of the loaded index",
		MIMEType:    "application/json",
	}, s.handleManifestResource)
}

// handleManifestResource describes the loaded index.
func (s *Server) handleManifestResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	index, err := s.ports.Index.Get(ctx)
	if err != nil {
		return nil, toolError(err)
	}

	m := index.Manifest()
	data, err := json.MarshalIndent(manifestInfo{
		Location:    s.ports.Index.Location(),
		Model:       m.Model,
		Dimension:   m.Dimension,
		Count:       m.Count,
		DocumentURI: m.DocumentURI,
		ChunkSize:   m.ChunkSize,
		Overlap:     m.Overlap,
		CreatedAt:   m.CreatedAt,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling manifest: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
