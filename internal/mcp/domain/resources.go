package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionListPayload represents the MCP resource payload for session
// listings.
type SessionListPayload struct {
	Sessions []SessionResult `json:"sessions"`
}

// SessionListResource defines the MCP resource for session listings.
func SessionListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "session_list",
		Title:       "Sessions",
		Description: "Readable listing of deduction sessions.",
		MIMEType:    "application/json",
		URI:         "ludos://sessions",
	}
}

// SessionListResourceHandler returns a readable session listing resource.
func SessionListResourceHandler(svc Deduction) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if svc == nil {
			return nil, fmt.Errorf("deduction service is not configured")
		}

		uri := SessionListResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		page, err := svc.ListSessions(callCtx, defaultInteractionPageSize, "")
		if err != nil {
			return nil, fmt.Errorf("list sessions failed: %w", err)
		}

		payload := SessionListPayload{Sessions: make([]SessionResult, 0, len(page.Sessions))}
		for _, record := range page.Sessions {
			payload.Sessions = append(payload.Sessions, sessionResult(record))
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal session list: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// SessionLogResourceTemplate defines the MCP resource template for session
// public logs.
func SessionLogResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "session_log",
		Title:       "Session Public Log",
		Description: "The session's public interaction log, inner reasoning excluded. URI format: ludos://sessions/{session_id}/log",
		MIMEType:    "text/plain",
		URITemplate: "ludos://sessions/{session_id}/log",
	}
}

// SessionLogResourceHandler returns a session's public journal as a readable
// resource.
func SessionLogResourceHandler(svc Deduction) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if svc == nil {
			return nil, fmt.Errorf("deduction service is not configured")
		}

		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("session ID is required; use URI format ludos://sessions/{session_id}/log")
		}
		uri := req.Params.URI

		sessionID, err := parseSessionIDFromLogURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse session ID from URI: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		// Resolve the session first so an unknown id reads as not found
		// instead of an empty log.
		if _, err := svc.GetSession(callCtx, sessionID); err != nil {
			return nil, fmt.Errorf("get session failed: %w", err)
		}

		text, err := svc.PublicLog(sessionID)
		if err != nil {
			return nil, fmt.Errorf("read public log failed: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "text/plain",
					Text:     text,
				},
			},
		}, nil
	}
}
