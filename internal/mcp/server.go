package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
	server *mcp.Server
}

// New creates a server for svc. It registers every tool and resource
// but does not start a transport.
func New(svc Service, cfg Config, version string) *Server {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}

	s := &Server{svc: svc, config: cfg}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "rela", Version: version},
		&mcp.ServerOptions{
			Capabilities: &mcp.ServerCapabilities{
				Tools:     &mcp.ToolCapabilities{},
				Resources: &mcp.ResourceCapabilities{},
			},
		},
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over stdio and blocks until the context is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "resolve",
		Description: "Compute the qualified module name, package root and launch command rela would use for a Python script. " +
			"Nothing is executed.",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "select_tests",
		Description: "Scan a Python test file and report which test methods a filtered run keeps, " +
			"honouring keep() decorators, '# rela:keep' comments and explicit keep names.",
	}, s.handleSelectTests)
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         "rela://config",
		Name:        "Current Configuration",
		Description: "Returns the loaded or auto-detected rela configuration",
		MIMEType:    "application/yaml",
	}, s.handleConfigResource)
}
