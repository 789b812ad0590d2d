package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	session *ops.Session
}

// NewHandlers creates a new Handlers instance with an empty live session.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg, session: ops.NewSession(db, cfg)}
}

// Request types for each tool

// ConvertRequest represents the arguments for color_convert.
type ConvertRequest struct {
	L     component `json:"l"`
	C     component `json:"c"`
	H     component `json:"h"`
	Alpha component `json:"alpha,omitempty"`
}

// ScanRequest represents the arguments for color_scan.
type ScanRequest struct {
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
}

// StoreRequest represents the arguments for document_store.
type StoreRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// AddressRequest addresses a document by id or name.
type AddressRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// FetchRequest represents the arguments for document_fetch.
type FetchRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	IncludeText *bool  `json:"include_text,omitempty"`
}

// ListRequest represents the arguments for document_list.
type ListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ImportRequest represents the arguments for document_import.
type ImportRequest struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
	Mode string `json:"mode,omitempty"`
}

// SessionEditRequest represents the arguments for session_edit.
type SessionEditRequest struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name,omitempty"`
	Text *string `json:"text"`
}

// Handler implementations

// HandleConvert handles the color_convert tool call.
func (h *Handlers) HandleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConvertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.L == "" || input.C == "" || input.H == "" {
		return errorResult(errors.NewInvalidRequest("l, c and h are required")), nil
	}

	result, err := ops.Convert(ops.ConvertInput{
		L:     string(input.L),
		C:     string(input.C),
		H:     string(input.H),
		Alpha: string(input.Alpha),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleScan handles the color_scan tool call.
func (h *Handlers) HandleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScanRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Scan(h.cfg, ops.ScanInput{Name: input.Name, Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStore handles the document_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.StoreDocument(h.db, h.cfg, ops.StoreInput{
		Name: input.Name,
		Text: input.Text,
		Mode: mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the document_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.FetchDocument(h.db, h.cfg, ops.FetchInput{
		ID:          input.ID,
		Name:        input.Name,
		IncludeText: input.IncludeText,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the document_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListDocuments(ctx, h.db, ops.ListInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the document_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteDocument(h.db, ops.DeleteInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the document_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ImportDocument(h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Name: input.Name,
		Mode: mode,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionOpen handles the session_open tool call.
func (h *Handlers) HandleSessionOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Open(ops.SessionOpenInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionEdit handles the session_edit tool call.
func (h *Handlers) HandleSessionEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionEditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Text == nil {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	result, err := h.session.Edit(ops.SessionEditInput{ID: input.ID, Name: input.Name, Text: *input.Text})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionClose handles the session_close tool call.
func (h *Handlers) HandleSessionClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddressRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Close(ops.SessionCloseInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessionMarkers handles the session_markers tool call.
func (h *Handlers) HandleSessionMarkers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.session.Snapshot())
}

func parseMode(mode string) (ops.StoreMode, error) {
	switch mode {
	case "", "error":
		return ops.StoreModeError, nil
	case "replace":
		return ops.StoreModeReplace, nil
	default:
		return "", errors.NewInvalidRequest("mode must be \"error\" or \"replace\"")
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": err.Error(),
			"status":  appErr.Status,
		}
		if err == error(appErr) {
			errorObj["message"] = appErr.Message
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		if appErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
