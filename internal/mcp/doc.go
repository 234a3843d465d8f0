// Package mcp implements the Model Context Protocol (MCP) server for the
// corpus tooling.
//
// The MCP server exposes four tools to AI assistants and automation clients:
//   - index_corpus: Index a raw EEG recording tree and assign identities
//   - convert_corpus: Convert an indexed corpus into a standardized layout
//   - corpus_status: Check indexing and conversion status
//   - list_recordings: List cataloged recordings with identity and status
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	eegcorpus serve
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: index_corpus
//
// Index a raw corpus to catalog its recordings:
//
//	Request:
//	{
//	  "name": "index_corpus",
//	  "arguments": {
//	    "path": "/data/raw",
//	    "concat_segments": true
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "scanned": 2993,
//	  "extracted": 2991,
//	  "failed": 2,
//	  "participants": 2329,
//	  "duration_ms": 4120
//	}
//
// # Tool: convert_corpus
//
// Convert every indexed recording into the standardized output layout:
//
//	Request:
//	{
//	  "name": "convert_corpus",
//	  "arguments": {
//	    "path": "/data/raw",
//	    "output": "/data/converted"
//	  }
//	}
//
//	Response:
//	{
//	  "converted": 2985,
//	  "failed": 6,
//	  "output": "/data/converted",
//	  "duration_ms": 182044
//	}
//
// Per-recording failures never abort a conversion run; they are reported in
// the response and recorded in the catalog with their reason. Only one
// conversion may run at a time per server.
//
// # Tool: corpus_status
//
// Query catalog state for a corpus root:
//
//	Response:
//	{
//	  "indexed": true,
//	  "corpus": {
//	    "path": "/data/raw",
//	    "total_recordings": 2991,
//	    "participants": 2329,
//	    "last_indexed_at": "2026-08-29T10:30:00Z"
//	  },
//	  "statistics": {
//	    "recordings": 2991,
//	    "converted": 2985,
//	    "failed": 6,
//	    "participants": 2329
//	  }
//	}
//
// # Error Handling
//
// Tool failures are returned as MCP protocol errors with structured codes:
//
//	-32602  invalid parameters (missing path, bad limit)
//	-32603  internal error (indexing or conversion failure)
//	-32001  path does not contain recordings
//	-32002  conversion already running
//	-32003  corpus not indexed
package mcp
