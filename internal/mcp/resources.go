package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/rela/internal/infrastructure/config"
)

// handleConfigResource returns the effective configuration as YAML.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cfg, err := s.svc.LoadConfig(s.config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var b strings.Builder
	if err := config.Write(&b, cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/yaml",
			Text:     b.String(),
		}},
	}, nil
}
