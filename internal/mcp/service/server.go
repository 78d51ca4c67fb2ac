// Package service hosts the MCP server for deduction sessions: tool and
// resource registration, transport selection, and the serve loop.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/louisbranch/ludos/internal/mcp/conformance"
	"github.com/louisbranch/ludos/internal/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Ludos MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// conformanceEnvVar enables MCP conformance fixtures when set to "1" or
	// "true" (case-insensitive).
	conformanceEnvVar = "MCP_CONFORMANCE"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

// TransportStdio uses standard input/output for MCP. The session console
// must stay silent on stdout while this transport runs.
const TransportStdio TransportKind = "stdio"

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
}

// Server hosts the MCP server over a deduction session service.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server exposing the deduction service's
// session operations as tools and its journals as resources.
func New(deduction domain.Deduction) (*Server, error) {
	if deduction == nil {
		return nil, fmt.Errorf("deduction service is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler: completionHandler,
	})

	registerSessionTools(mcpServer, deduction)
	registerInteractionTools(mcpServer, deduction)
	registerJournalResources(mcpServer, deduction)
	if conformanceEnabled() {
		conformance.Register(mcpServer)
	}

	return &Server{mcpServer: mcpServer}, nil
}

// completionHandler handles completion/complete requests with empty results.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// Run creates and serves the MCP server until the context ends.
func Run(ctx context.Context, cfg Config, deduction domain.Deduction) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, deduction, &mcp.StdioTransport{})
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
// Context cancellation is a clean shutdown, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// runWithTransport creates a server and serves it over the provided
// transport.
func runWithTransport(ctx context.Context, deduction domain.Deduction, transport mcp.Transport) error {
	server, err := New(deduction)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// conformanceEnabled reports whether conformance fixtures should be
// registered.
func conformanceEnabled() bool {
	value := strings.TrimSpace(os.Getenv(conformanceEnvVar))
	if value == "" {
		return false
	}
	return value == "1" || strings.EqualFold(value, "true")
}
