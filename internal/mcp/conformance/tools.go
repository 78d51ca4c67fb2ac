//go:build conformance

// Package conformance carries protocol-validation fixtures for MCP client
// test suites: tools, a prompt, and a resource with fixed, predictable
// payloads. The fixtures are gated behind the conformance build tag and an
// environment switch so production servers never expose them.
package conformance

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	fixtureResourceName = "test_fixture_text"
	fixtureResourceURI  = "ludos://conformance/fixture"
	fixtureResourceText = "Fixed fixture content for MCP conformance runs."
)

// Register adds conformance-only MCP fixtures (tools, prompts, resources).
func Register(mcpServer *mcp.Server) {
	if mcpServer == nil {
		return
	}

	mcp.AddTool(mcpServer, echoTool(), echoHandler())
	mcp.AddTool(mcpServer, failingTool(), failingHandler())
	mcpServer.AddPrompt(fixturePrompt(), fixturePromptHandler())
	mcpServer.AddResource(fixtureResource(), fixtureResourceHandler())
}

// EchoInput represents the conformance echo tool input.
type EchoInput struct {
	Text string `json:"text" jsonschema:"text to echo back"`
}

// echoTool defines the conformance tool schema for typed input echoing.
func echoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "test_echo",
		Description: "Conformance tool that echoes its text input back as text content.",
	}
}

// echoHandler returns the input text, exercising typed input binding.
func echoHandler() mcp.ToolHandlerFor[EchoInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input EchoInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("echo: %s", input.Text)},
			},
		}, nil, nil
	}
}

// failingTool defines the conformance tool schema for tool-error handling.
func failingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "test_tool_error",
		Description: "Conformance tool that always reports a tool error.",
	}
}

// failingHandler returns a fixed tool error payload for conformance
// validation.
func failingHandler() mcp.ToolHandlerFor[struct{}, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "intentional conformance tool error"},
			},
		}, nil, nil
	}
}

func fixturePrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        "test_fixture_prompt",
		Description: "Conformance prompt that returns a single fixed user message.",
	}
}

func fixturePromptHandler() mcp.PromptHandler {
	return func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role: "user",
					Content: &mcp.TextContent{
						Text: "Summarize the current deduction session in one sentence.",
					},
				},
			},
		}, nil
	}
}

// fixtureResource defines the conformance resource schema for static text.
func fixtureResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        fixtureResourceName,
		Description: "Conformance resource that returns fixed text content.",
		MIMEType:    "text/plain",
		URI:         fixtureResourceURI,
	}
}

// fixtureResourceHandler returns fixed text content for conformance
// validation.
func fixtureResourceHandler() mcp.ResourceHandler {
	return func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      fixtureResourceURI,
					MIMEType: "text/plain",
					Text:     fixtureResourceText,
				},
			},
		}, nil
	}
}
