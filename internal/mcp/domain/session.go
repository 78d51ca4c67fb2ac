package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// queryTimeout bounds store-only lookups. Tools that drive the language
// model (start, run, polish) carry no timeout; a deduction run is minutes,
// not seconds.
const queryTimeout = 5 * time.Second

// SessionStartInput represents the MCP tool input for starting a session.
type SessionStartInput struct {
	Outline   string `json:"outline" jsonschema:"narrative outline text to initialize the session from"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session identifier; generated when empty"`
}

// SessionStartTool defines the MCP tool schema for starting a session.
func SessionStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "start_session",
		Description: "Parses a narrative outline into objective facts and private character dossiers and creates a new deduction session.",
	}
}

// SessionStartHandler executes a session start request.
func SessionStartHandler(svc Deduction) mcp.ToolHandlerFor[SessionStartInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionStartInput) (*mcp.CallToolResult, SessionResult, error) {
		if strings.TrimSpace(input.Outline) == "" {
			return nil, SessionResult{}, fmt.Errorf("outline is required")
		}

		record, err := svc.StartSession(ctx, input.Outline, input.SessionID)
		if err != nil {
			return nil, SessionResult{}, fmt.Errorf("start session failed: %w", err)
		}
		return nil, sessionResult(record), nil
	}
}

// DeductionRunInput represents the MCP tool input for running a deduction.
type DeductionRunInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// DeductionRunResult represents the MCP tool output for running a deduction.
type DeductionRunResult struct {
	ID        string `json:"id" jsonschema:"session identifier"`
	Status    string `json:"status" jsonschema:"session status after the run"`
	EndReason string `json:"end_reason,omitempty" jsonschema:"why the session ended"`
	Rounds    int    `json:"rounds" jsonschema:"rounds played so far"`
	Scene     string `json:"scene" jsonschema:"final scene description"`
}

// DeductionRunTool defines the MCP tool schema for running a deduction.
func DeductionRunTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "run_deduction",
		Description: "Runs the deduction loop for a session until an end condition is met. Resumes from the latest round checkpoint; may take minutes.",
	}
}

// DeductionRunHandler executes a deduction run request.
func DeductionRunHandler(svc Deduction) mcp.ToolHandlerFor[DeductionRunInput, DeductionRunResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeductionRunInput) (*mcp.CallToolResult, DeductionRunResult, error) {
		if strings.TrimSpace(input.SessionID) == "" {
			return nil, DeductionRunResult{}, fmt.Errorf("session_id is required")
		}

		record, err := svc.RunDeduction(ctx, input.SessionID)
		if err != nil {
			return nil, DeductionRunResult{}, fmt.Errorf("run deduction failed: %w", err)
		}
		state, err := svc.GetState(ctx, input.SessionID)
		if err != nil {
			return nil, DeductionRunResult{}, fmt.Errorf("load session state failed: %w", err)
		}

		return nil, DeductionRunResult{
			ID:        record.ID,
			Status:    record.Status,
			EndReason: record.EndReason,
			Rounds:    state.Round,
			Scene:     record.Scene,
		}, nil
	}
}

// SessionGetInput represents the MCP tool input for reading a session.
type SessionGetInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// SessionGetTool defines the MCP tool schema for reading a session.
func SessionGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_session",
		Description: "Reads a deduction session's metadata and status.",
	}
}

// SessionGetHandler executes a session read request.
func SessionGetHandler(svc Deduction) mcp.ToolHandlerFor[SessionGetInput, SessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionGetInput) (*mcp.CallToolResult, SessionResult, error) {
		if strings.TrimSpace(input.SessionID) == "" {
			return nil, SessionResult{}, fmt.Errorf("session_id is required")
		}

		callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		record, err := svc.GetSession(callCtx, input.SessionID)
		if err != nil {
			return nil, SessionResult{}, fmt.Errorf("get session failed: %w", err)
		}
		return nil, sessionResult(record), nil
	}
}

// SessionPolishInput represents the MCP tool input for polishing a session.
type SessionPolishInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
}

// SessionPolishResult represents the MCP tool output for polishing a session.
type SessionPolishResult struct {
	RawLog   string `json:"raw_log" jsonschema:"raw interaction log, inner reasoning included"`
	Polished string `json:"polished" jsonschema:"polished literary narrative"`
}

// SessionPolishTool defines the MCP tool schema for polishing a session.
func SessionPolishTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "polish_session",
		Description: "Rewrites a session's raw interaction log as literary narrative prose using every character's private dossier.",
	}
}

// SessionPolishHandler executes a session polish request.
func SessionPolishHandler(svc Deduction) mcp.ToolHandlerFor[SessionPolishInput, SessionPolishResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionPolishInput) (*mcp.CallToolResult, SessionPolishResult, error) {
		if strings.TrimSpace(input.SessionID) == "" {
			return nil, SessionPolishResult{}, fmt.Errorf("session_id is required")
		}

		rawLog, polished, err := svc.Polish(ctx, input.SessionID)
		if err != nil {
			return nil, SessionPolishResult{}, fmt.Errorf("polish session failed: %w", err)
		}
		return nil, SessionPolishResult{RawLog: rawLog, Polished: polished}, nil
	}
}
