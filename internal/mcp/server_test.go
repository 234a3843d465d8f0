package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscan/eegcorpus/internal/edf/edftest"
)

func newTestServer(t *testing.T) *Server {
	server, err := NewServer(t.TempDir(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.catalog.Close() })
	return server
}

// writeTestCorpus lays out a two-subject raw tree and returns its root.
func writeTestCorpus(t *testing.T) string {
	root := t.TempDir()
	dir := filepath.Join(root, "train", "normal", "01_tcp_ar")
	edftest.WriteFile(t, filepath.Join(dir, "aaaaaaaa_s001_t000.edf"), edftest.Options{})
	edftest.WriteFile(t, filepath.Join(dir, "bbbbbbbb_s001_t000.edf"), edftest.Options{
		Patient:   "X X X Age:52 F",
		StartDate: "09.11.15",
	})
	return root
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultJSON decodes the text payload of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool result should be text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestServer_Initialization(t *testing.T) {
	t.Run("custom path creates database", func(t *testing.T) {
		dir := t.TempDir()
		server, err := NewServer(dir, 0)
		require.NoError(t, err)
		defer server.catalog.Close()

		assert.NotNil(t, server.mcp)
		assert.NotNil(t, server.catalog)
		assert.NotNil(t, server.pool)

		_, err = os.Stat(filepath.Join(dir, "catalog.db"))
		assert.NoError(t, err)
	})
}

func TestHandleIndexCorpus(t *testing.T) {
	server := newTestServer(t)
	root := writeTestCorpus(t)

	res, err := server.handleIndexCorpus(context.Background(),
		callRequest("index_corpus", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, true, payload["indexed"])
	assert.Equal(t, float64(2), payload["scanned"])
	assert.Equal(t, float64(2), payload["extracted"])
	assert.Equal(t, float64(0), payload["failed"])
	assert.Equal(t, float64(2), payload["participants"])
}

func TestHandleIndexCorpus_InvalidPath(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleIndexCorpus(context.Background(),
		callRequest("index_corpus", map[string]interface{}{"path": "relative/path"}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleIndexCorpus_MissingPath(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleIndexCorpus(context.Background(),
		callRequest("index_corpus", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleCorpusStatus_NotIndexed(t *testing.T) {
	server := newTestServer(t)

	res, err := server.handleCorpusStatus(context.Background(),
		callRequest("corpus_status", map[string]interface{}{"path": "/never/indexed"}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, false, payload["indexed"])
}

func TestHandleCorpusStatus_AfterIndex(t *testing.T) {
	server := newTestServer(t)
	root := writeTestCorpus(t)
	ctx := context.Background()

	_, err := server.handleIndexCorpus(ctx,
		callRequest("index_corpus", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	res, err := server.handleCorpusStatus(ctx,
		callRequest("corpus_status", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, true, payload["indexed"])

	stats, ok := payload["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), stats["recordings"])
	assert.Equal(t, float64(0), stats["converted"])
}

func TestHandleListRecordings(t *testing.T) {
	server := newTestServer(t)
	root := writeTestCorpus(t)
	ctx := context.Background()

	_, err := server.handleIndexCorpus(ctx,
		callRequest("index_corpus", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	res, err := server.handleListRecordings(ctx,
		callRequest("list_recordings", map[string]interface{}{"path": root}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, float64(2), payload["total"])

	rows, ok := payload["recordings"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)

	first, ok := rows[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "aaaaaaaa", first["subject"])
	assert.Equal(t, "0001", first["participant_id"])
	assert.Equal(t, "indexed", first["status"])
}

func TestHandleListRecordings_NotIndexed(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleListRecordings(context.Background(),
		callRequest("list_recordings", map[string]interface{}{"path": "/never/indexed"}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNotIndexed, mcpErr.Code)
}

func TestHandleListRecordings_LimitBounds(t *testing.T) {
	server := newTestServer(t)

	_, err := server.handleListRecordings(context.Background(),
		callRequest("list_recordings", map[string]interface{}{
			"path":  "/data/raw",
			"limit": float64(0),
		}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleConvertCorpus(t *testing.T) {
	server := newTestServer(t)
	root := writeTestCorpus(t)
	output := t.TempDir()
	ctx := context.Background()

	res, err := server.handleConvertCorpus(ctx,
		callRequest("convert_corpus", map[string]interface{}{
			"path":   root,
			"output": output,
		}))
	require.NoError(t, err)

	payload := resultJSON(t, res)
	assert.Equal(t, float64(2), payload["converted"])
	assert.Equal(t, float64(0), payload["failed"])

	// Artifacts land in the standardized layout alongside the summary table
	_, err = os.Stat(filepath.Join(output, "sub-0001", "ses-001", "eeg",
		"sub-0001_ses-001_task-rest_run-000_eeg.edf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(output, "recordings.tsv"))
	assert.NoError(t, err)

	// Catalog reflects conversion outcomes
	statusRes, err := server.handleCorpusStatus(ctx,
		callRequest("corpus_status", map[string]interface{}{"path": root}))
	require.NoError(t, err)
	stats := resultJSON(t, statusRes)["statistics"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["converted"])
}

func TestValidatePath(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, validatePath(""), ErrPathRequired)
	})

	t.Run("relative", func(t *testing.T) {
		assert.ErrorIs(t, validatePath("raw/corpus"), ErrPathNotAbsolute)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, validatePath("/no/such/corpus"), ErrPathNotFound)
	})

	t.Run("not a directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.edf")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		assert.ErrorIs(t, validatePath(path), ErrNotDirectory)
	})

	t.Run("no recordings", func(t *testing.T) {
		assert.ErrorIs(t, validatePath(t.TempDir()), ErrNoRecordings)
	})

	t.Run("valid corpus", func(t *testing.T) {
		assert.NoError(t, validatePath(writeTestCorpus(t)))
	})
}
