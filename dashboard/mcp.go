package dashboard

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atelierlab/maquette/element"
	"github.com/atelierlab/maquette/kit"
	"github.com/atelierlab/maquette/render"
)

// RegisterMCP registers the dashboard tools on an MCP server, so agent
// clients can render posts and manage templates without the HTTP API.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerRenderTool(srv)
	s.registerListTemplatesTool(srv)
	s.registerSaveTemplateTool(srv)
	s.registerListCategoriesTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Service) registerRenderTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "maquette_render",
		Description: "Render a social post image from a background, title, and category",
		InputSchema: inputSchema(map[string]any{
			"backgroundUrl": map[string]any{"type": "string", "description": "Background image URL or data: URI (visual mode)"},
			"bgColor":       map[string]any{"type": "string", "description": "Background color (text mode)"},
			"title":         map[string]any{"type": "string", "description": "Headline text"},
			"mode":          map[string]any{"type": "string", "description": "visual or text"},
			"format":        map[string]any{"type": "string", "description": "png, jpg, or webp"},
			"quality":       map[string]any{"type": "string", "description": "low, medium, or high"},
			"scale":         map[string]any{"type": "number", "description": "Pixel scale 1-3"},
			"category":      map[string]any{"type": "string", "description": "Category key for the badge"},
		}, []string{"title", "mode"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		req := r.(*render.Request)
		resp, err := s.Render(ctx, *req)
		if err != nil {
			return nil, err
		}
		// Inline bytes stay out of the tool result; Base64 carries them.
		resp.Data = nil
		return resp, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var req render.Request
		if err := json.Unmarshal(r.Params.Arguments, &req); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &req}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerListTemplatesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "maquette_list_templates",
		Description: "List stored canvas templates",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.store.ListTemplates(ctx)
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerSaveTemplateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "maquette_save_template",
		Description: "Create or update a stored canvas template",
		InputSchema: inputSchema(map[string]any{
			"id":       map[string]any{"type": "string", "description": "Template id; omit to create a new one"},
			"name":     map[string]any{"type": "string", "description": "Display name"},
			"template": map[string]any{"type": "object", "description": "Canvas template document"},
		}, []string{"name", "template"}),
	}

	type saveArgs struct {
		ID       string            `json:"id"`
		Name     string            `json:"name"`
		Template *element.Template `json:"template"`
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		args := r.(*saveArgs)
		if args.Name == "" || args.Template == nil {
			return nil, errors.New("name and template are required")
		}
		if args.ID != "" {
			if err := s.store.UpdateTemplate(ctx, args.ID, args.Name, args.Template); err != nil {
				return nil, err
			}
			return map[string]string{"id": args.ID, "status": "updated"}, nil
		}
		id, err := s.store.SaveTemplate(ctx, args.Name, args.Template)
		if err != nil {
			return nil, err
		}
		return map[string]string{"id": id, "status": "created"}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var args saveArgs
		if err := json.Unmarshal(r.Params.Arguments, &args); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &args}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerListCategoriesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "maquette_list_categories",
		Description: "List content categories and their badge assets",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.store.ListCategories(ctx)
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
