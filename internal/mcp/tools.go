package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/rela/internal/application"
)

func (s *Server) handleResolve(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	result, err := s.svc.Resolve(ctx, application.ResolveOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Script:     input.Script,
		Spec:       input.Spec,
		Args:       input.Args,
		Command:    true,
	})
	if err != nil {
		return nil, ResolveOutput{Error: err.Error()}, nil
	}

	ic := result.Context
	return nil, ResolveOutput{
		Module:     ic.Module(),
		Package:    ic.Package(),
		Root:       ic.RootDir(),
		Target:     ic.LaunchTarget(),
		TopLevel:   result.TopLevel,
		SearchPath: result.SearchPath,
		Command:    result.Command,
		Env:        result.Env,
	}, nil
}

func (s *Server) handleSelectTests(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SelectTestsInput,
) (*mcp.CallToolResult, SelectTestsOutput, error) {
	// List mode selects without running or touching the search path.
	result, err := s.svc.Test(ctx, application.TestOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		File:       input.File,
		Class:      input.Class,
		Keep:       input.Keep,
		Spec:       input.Spec,
		List:       true,
	})
	if err != nil {
		return nil, SelectTestsOutput{Error: err.Error()}, nil
	}

	return nil, SelectTestsOutput{
		Module:     result.Module,
		Selections: result.Selections,
		Targets:    result.Targets,
		Summary:    summarize(result),
	}, nil
}

func summarize(result application.TestResult) string {
	var kept, removed int
	for _, sel := range result.Selections {
		kept += len(sel.Kept)
		removed += len(sel.Removed)
	}
	if len(result.Selections) == 0 {
		return "No test classes found"
	}
	return fmt.Sprintf("%d kept | %d removed | %d classes", kept, removed, len(result.Selections))
}
