package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/novaflow/sciskills/pkg/logger"
	"github.com/novaflow/sciskills/pkg/skills"
	"github.com/novaflow/sciskills/pkg/version"
)

// nullID is echoed when the caller omitted the id; the envelope always
// carries one.
var nullID = json.RawMessage("null")

// Dispatcher routes decoded MCP requests to their handlers. It holds no
// per-request state: every response is a pure function of the request and the
// registry's current catalog, so it is safe for concurrent use.
type Dispatcher struct {
	registry *skills.Registry
	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, req *Request) *Response

// NewDispatcher creates a dispatcher backed by the given registry.
func NewDispatcher(registry *skills.Registry) *Dispatcher {
	d := &Dispatcher{registry: registry}
	d.handlers = map[string]handlerFunc{
		"initialize":     d.handleInitialize,
		"tools/list":     d.handleListTools,
		"tools/call":     d.handleCallTool,
		"resources/list": d.handleListResources,
		"resources/read": d.handleReadResource,
	}
	return d
}

// Dispatch handles one request and always produces a response envelope.
// Unknown methods, including the empty method of a malformed request, come
// back as protocol-level errors, never as a failure of the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	if req.ID == nil {
		req.ID = nullID
	}

	logger.G(ctx).WithField("method", req.Method).Debug("Dispatching MCP request")

	handler, ok := d.handlers[req.Method]
	if !ok {
		return &Response{
			ID:    req.ID,
			Error: fmt.Sprintf("Unsupported method: %s", req.Method),
		}
	}

	return handler(ctx, req)
}

func (d *Dispatcher) handleInitialize(_ context.Context, req *Request) *Response {
	return &Response{
		ID: req.ID,
		Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: Capabilities{
				Tools: ToolsCapability{ListChanged: false},
			},
			ServerInfo: ServerInfo{
				Name:    ServerName,
				Version: version.Get().Version,
			},
		},
	}
}

func (d *Dispatcher) handleListTools(ctx context.Context, req *Request) *Response {
	return &Response{
		ID:     req.ID,
		Result: ListToolsResult{Tools: d.registry.ListTools(ctx)},
	}
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req *Request) *Response {
	name, _ := req.Params["name"].(string)

	content, ok := d.registry.GetContent(ctx, name)
	if !ok {
		logger.G(ctx).WithField("tool", name).Warn("Unknown tool requested")
		return &Response{
			ID:    req.ID,
			Error: fmt.Sprintf("Unknown tool: %s", name),
		}
	}

	return &Response{
		ID: req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: content}},
			IsError: false,
		},
	}
}

func (d *Dispatcher) handleListResources(_ context.Context, req *Request) *Response {
	return &Response{
		ID:     req.ID,
		Result: ListResourcesResult{Resources: []any{}},
	}
}

func (d *Dispatcher) handleReadResource(_ context.Context, req *Request) *Response {
	return &Response{
		ID:    req.ID,
		Error: "resources are not supported",
	}
}
