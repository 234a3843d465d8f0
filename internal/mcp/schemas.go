package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCorpusTool returns the tool definition for index_corpus
func indexCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_corpus",
		Description: "Index a raw EEG recording tree and assign canonical participant identities",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the raw corpus root (must contain .edf recordings)",
				},
				"concat_segments": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, collapse per-session segments to a single run",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// convertCorpusTool returns the tool definition for convert_corpus
func convertCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "convert_corpus",
		Description: "Convert an indexed raw corpus into a standardized output layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the raw corpus root",
				},
				"output": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the output root for converted recordings",
				},
				"concat_segments": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, collapse per-session segments to a single run",
					"default":     true,
				},
			},
			Required: []string{"path", "output"},
		},
	}
}

// corpusStatusTool returns the tool definition for corpus_status
func corpusStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "corpus_status",
		Description: "Query indexing and conversion status for a corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the raw corpus root",
				},
			},
			Required: []string{"path"},
		},
	}
}

// listRecordingsTool returns the tool definition for list_recordings
func listRecordingsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_recordings",
		Description: "List cataloged recordings for a corpus with identity and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the raw corpus root",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of recordings to return (1-1000)",
					"default":     100,
					"minimum":     1,
					"maximum":     1000,
				},
			},
			Required: []string{"path"},
		},
	}
}
