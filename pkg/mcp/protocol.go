// Package mcp implements the server side of the MCP request/response
// protocol: the envelope types and a dispatcher that maps the fixed method
// set onto the skill registry.
package mcp

import (
	"encoding/json"

	"github.com/novaflow/sciskills/pkg/skills"
)

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// ServerName identifies this server in the initialize handshake and the
// health endpoint.
const ServerName = "scientific-skills-mcp"

// Request is one decoded MCP message. The id is an opaque caller-supplied
// token kept as raw JSON so it is echoed back byte-for-byte regardless of
// type.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params map[string]any  `json:"params"`
}

// Response is the envelope wrapping every dispatcher result. Exactly one of
// Result and Error is set; the id is always present, echoed from the request.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// InitializeResult is the static capability payload returned by "initialize"
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities declares which protocol features the server supports
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// ToolsCapability describes the tools capability. The catalog is fixed after
// load, so listChanged is always false.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerInfo identifies the server implementation
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListToolsResult is the payload returned by "tools/list"
type ListToolsResult struct {
	Tools []skills.Tool `json:"tools"`
}

// CallToolResult is the payload returned by a successful "tools/call"
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

// ContentBlock is one piece of tool output. Skill invocations always return
// a single text block holding the verbatim document.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ListResourcesResult is the payload returned by "resources/list". The server
// has no resource concept; the method exists for protocol-surface
// completeness and always returns an empty list.
type ListResourcesResult struct {
	Resources []any `json:"resources"`
}
