package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultInteractionPageSize caps unbounded interaction listings.
const defaultInteractionPageSize = 50

// InteractionListInput represents the MCP tool input for listing
// interactions.
type InteractionListInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum interactions per page (default 50)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"continuation token from a previous page"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over character_id, round, kind, and status"`
}

// InteractionListResult represents the MCP tool output for listing
// interactions.
type InteractionListResult struct {
	Interactions  []InteractionEntry `json:"interactions" jsonschema:"interactions in commit order"`
	NextPageToken string             `json:"next_page_token,omitempty" jsonschema:"token for the next page, empty on the last page"`
}

// InteractionListTool defines the MCP tool schema for listing interactions.
func InteractionListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_interactions",
		Description: "Lists a session's committed interactions in commit order, with AIP-160 filtering and pagination.",
	}
}

// InteractionListHandler executes an interaction list request.
func InteractionListHandler(svc Deduction) mcp.ToolHandlerFor[InteractionListInput, InteractionListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InteractionListInput) (*mcp.CallToolResult, InteractionListResult, error) {
		if strings.TrimSpace(input.SessionID) == "" {
			return nil, InteractionListResult{}, fmt.Errorf("session_id is required")
		}
		pageSize := input.PageSize
		if pageSize <= 0 {
			pageSize = defaultInteractionPageSize
		}

		callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		page, err := svc.ListInteractions(callCtx, input.SessionID, pageSize, input.PageToken, input.Filter)
		if err != nil {
			return nil, InteractionListResult{}, fmt.Errorf("list interactions failed: %w", err)
		}
		return nil, InteractionListResult{
			Interactions:  interactionEntries(page.Interactions),
			NextPageToken: page.NextPageToken,
		}, nil
	}
}

// InteractionSearchInput represents the MCP tool input for searching
// interactions.
type InteractionSearchInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	Keyword   string `json:"keyword" jsonschema:"substring matched against spoken and action content"`
}

// InteractionSearchResult represents the MCP tool output for searching
// interactions.
type InteractionSearchResult struct {
	Interactions []InteractionEntry `json:"interactions" jsonschema:"matching interactions in commit order"`
}

// InteractionSearchTool defines the MCP tool schema for searching
// interactions.
func InteractionSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_interactions",
		Description: "Searches a session's interactions for a keyword in spoken or action content.",
	}
}

// InteractionSearchHandler executes an interaction search request.
func InteractionSearchHandler(svc Deduction) mcp.ToolHandlerFor[InteractionSearchInput, InteractionSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InteractionSearchInput) (*mcp.CallToolResult, InteractionSearchResult, error) {
		if strings.TrimSpace(input.SessionID) == "" {
			return nil, InteractionSearchResult{}, fmt.Errorf("session_id is required")
		}
		if strings.TrimSpace(input.Keyword) == "" {
			return nil, InteractionSearchResult{}, fmt.Errorf("keyword is required")
		}

		callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		records, err := svc.SearchInteractions(callCtx, input.SessionID, input.Keyword)
		if err != nil {
			return nil, InteractionSearchResult{}, fmt.Errorf("search interactions failed: %w", err)
		}
		return nil, InteractionSearchResult{Interactions: interactionEntries(records)}, nil
	}
}
