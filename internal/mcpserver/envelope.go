package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nordvik/grimoire/internal/apperr"
)

// envelope is the uniform JSON payload every tool returns, success or not.
type envelope struct {
	Success         bool          `json:"success"`
	Data            any           `json:"data,omitempty"`
	Error           *apperr.Error `json:"error,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	ExecutionTimeMS int64         `json:"execution_time_ms"`
}

// toolFunc is a tool body: it returns the data payload or an error that the
// wrapper converts into an error envelope.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// handle wraps a tool body with envelope construction, timing, and a
// recover barrier. fallbackCode labels errors that carry no code of their
// own, and any panic escaping the body.
func handle(fallbackCode string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, retErr error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				result = respond(start, nil, apperr.Newf(fallbackCode, "unexpected error: %v", r), fallbackCode)
				retErr = nil
			}
		}()
		data, err := fn(ctx, req)
		return respond(start, data, err, fallbackCode), nil
	}
}

// respond serializes the envelope. Error envelopes are flagged as tool
// errors so MCP clients surface them; the envelope itself still carries the
// structured code and suggestions.
func respond(start time.Time, data any, err error, fallbackCode string) *mcp.CallToolResult {
	env := envelope{
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		env.Error = apperr.As(err, fallbackCode)
	} else {
		env.Success = true
		env.Data = data
	}

	out, marshalErr := json.MarshalIndent(env, "", "  ")
	if marshalErr != nil {
		return mcp.NewToolResultError(marshalErr.Error())
	}
	if err != nil {
		return mcp.NewToolResultError(string(out))
	}
	return mcp.NewToolResultText(string(out))
}
