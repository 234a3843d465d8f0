package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/neuroscan/eegcorpus/internal/bids"
	"github.com/neuroscan/eegcorpus/internal/catalog"
	"github.com/neuroscan/eegcorpus/internal/convert"
	"github.com/neuroscan/eegcorpus/internal/index"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeCorpusNotFound       = -32001 // Specified path does not contain recordings
	ErrorCodeConversionInProgress = -32002 // Another conversion is already running
	ErrorCodeNotIndexed           = -32003 // Corpus not indexed
)

// indexAndAssign builds the sorted index for root and assigns canonical
// identities over it.
func (s *Server) indexAndAssign(ctx context.Context, root string, concatSegments bool) ([]index.Assigned, *index.BuildStats, error) {
	ix, stats, err := index.Build(ctx, s.pool, root, nil)
	if err != nil {
		return nil, nil, err
	}
	assigned, err := ix.Reindex(index.ReindexOptions{ConcatSegments: concatSegments})
	if err != nil {
		return nil, nil, err
	}
	return assigned, stats, nil
}

// handleIndexCorpus handles the index_corpus tool invocation
func (s *Server) handleIndexCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	concatSegments := getBoolDefault(args, "concat_segments", true)

	assigned, stats, err := s.indexAndAssign(ctx, path, concatSegments)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	corpus, err := catalog.SaveIndex(ctx, s.catalog, path, assigned)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save index", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":      true,
		"scanned":      stats.Scanned,
		"extracted":    stats.Extracted,
		"failed":       stats.Failed,
		"participants": corpus.Participants,
		"duration_ms":  stats.Duration.Milliseconds(),
	}

	if len(stats.Failures) > 0 {
		messages := make([]string, 0, len(stats.Failures))
		for _, f := range stats.Failures {
			messages = append(messages, f.Error())
		}
		if len(messages) > 5 {
			response["errors"] = messages[:5]
			response["error_count"] = len(messages)
		} else {
			response["errors"] = messages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleConvertCorpus handles the convert_corpus tool invocation
func (s *Server) handleConvertCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	output, ok := args["output"].(string)
	if !ok || output == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "output parameter is required", map[string]interface{}{
			"param":  "output",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	if !filepath.IsAbs(output) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid output", map[string]interface{}{
			"param":  "output",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	concatSegments := getBoolDefault(args, "concat_segments", true)

	assigned, _, err := s.indexAndAssign(ctx, path, concatSegments)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	corpus, err := catalog.SaveIndex(ctx, s.catalog, path, assigned)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save index", map[string]interface{}{
			"error": err.Error(),
		})
	}

	converter := convert.New(bids.NewWriter(output), "edf")
	summary, err := converter.ConvertAll(ctx, s.pool, assigned)
	if errors.Is(err, convert.ErrConversionInProgress) {
		return nil, newMCPError(ErrorCodeConversionInProgress, "conversion already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "conversion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if _, err := convert.WriteSummary(output, summary); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to write summary table", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := catalog.SaveSummary(ctx, s.catalog, corpus.ID, summary); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save conversion status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"converted":   len(summary.Results),
		"failed":      len(summary.Failures),
		"output":      output,
		"duration_ms": summary.Duration.Milliseconds(),
	}

	if len(summary.Failures) > 0 {
		messages := make([]string, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			messages = append(messages, f.Error())
		}
		if len(messages) > 5 {
			response["errors"] = messages[:5]
			response["error_count"] = len(messages)
		} else {
			response["errors"] = messages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCorpusStatus handles the corpus_status tool invocation
func (s *Server) handleCorpusStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	corpus, err := s.catalog.GetCorpus(ctx, path)
	if errors.Is(err, catalog.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Corpus not indexed. Use index_corpus tool to index this corpus.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get corpus status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.catalog.Status(ctx, corpus.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"corpus": map[string]interface{}{
			"path":             corpus.RootPath,
			"total_recordings": corpus.TotalRecordings,
			"participants":     corpus.Participants,
			"last_indexed_at":  corpus.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"recordings":   status.Recordings,
			"converted":    status.Converted,
			"failed":       status.Failed,
			"participants": status.Participants,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListRecordings handles the list_recordings tool invocation
func (s *Server) handleListRecordings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	corpus, err := s.catalog.GetCorpus(ctx, path)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "corpus not indexed", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get corpus", map[string]interface{}{
			"error": err.Error(),
		})
	}

	recs, err := s.catalog.ListRecordings(ctx, corpus.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list recordings", map[string]interface{}{
			"error": err.Error(),
		})
	}

	total := len(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	rows := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		row := map[string]interface{}{
			"path":           rec.Path,
			"subject":        rec.SubjectRawID,
			"session":        rec.SessionNumber,
			"segment":        rec.SegmentNumber,
			"participant_id": rec.ParticipantID,
			"session_id":     rec.SessionID,
			"status":         rec.Status,
		}
		if rec.FailReason != "" {
			row["fail_reason"] = rec.FailReason
		}
		rows = append(rows, row)
	}

	response := map[string]interface{}{
		"total":      total,
		"returned":   len(rows),
		"recordings": rows,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and contains raw recordings
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	hasRecordings := false
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".edf") {
			hasRecordings = true
			return fs.SkipAll
		}
		return nil
	})

	if !hasRecordings {
		return ErrNoRecordings
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoRecordings    = errors.New("directory does not contain .edf recordings")
)
