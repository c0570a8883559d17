// Package mcp exposes scout review data as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/scout/internal/aggregate"
	"github.com/joescharf/scout/internal/client"
	"github.com/joescharf/scout/internal/models"
)

// Gateway is the part of the gateway client the tools need.
type Gateway interface {
	aggregate.ItemFetcher
	RateResponse(ctx context.Context, req client.RatingRequest) (client.RatingConfirmation, error)
}

// Server wraps a gateway client and exposes it as MCP tools.
type Server struct {
	gw      Gateway
	agg     *aggregate.Aggregator
	version string
}

// NewServer creates the MCP server wrapper.
func NewServer(gw Gateway, agg *aggregate.Aggregator, version string) *Server {
	if agg == nil {
		agg = aggregate.New(gw, nil)
	}
	if version == "" {
		version = "dev"
	}
	return &Server{gw: gw, agg: agg, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("scout", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listResultsTool())
	srv.AddTool(s.resultDetailTool())
	srv.AddTool(s.getItemTool())
	srv.AddTool(s.relatedTool())
	srv.AddTool(s.rateTool())
	srv.AddTool(s.summaryTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// scout_list_results
func (s *Server) listResultsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_list_results",
		mcp.WithDescription("List review results joined with their criterion and source file names. Negative results come first. Each record has id, criterion, category, gate, status (Positive/Neutral/Negative), justification and sources (chunk_id, file_name)."),
		mcp.WithString("status", mcp.Description("Only return results with this status: Positive, Neutral, Negative")),
	)
	return tool, s.handleListResults
}

func (s *Server) handleListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.agg.LoadResults(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load results: %v", err)), nil
	}

	if status := request.GetString("status", ""); status != "" {
		filtered := records[:0]
		for _, r := range records {
			if strings.EqualFold(string(r.Status), status) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return jsonResult(records, "results")
}

// scout_result_detail
func (s *Server) resultDetailTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_result_detail",
		mcp.WithDescription("Get the ratings of a result and which thumb (up/down/none) the most recent rating selects."),
		mcp.WithString("result_id", mcp.Required(), mcp.Description("Result UUID")),
		mcp.WithBoolean("limit_to_user", mcp.Description("Only consider ratings made by the calling user (default true)")),
	)
	return tool, s.handleResultDetail
}

func (s *Server) handleResultDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("result_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: result_id"), nil
	}
	d, err := s.agg.Detail(ctx, id, request.GetBool("limit_to_user", true))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load ratings: %v", err)), nil
	}
	return jsonResult(d, "detail")
}

// scout_get_item
func (s *Server) getItemTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_get_item",
		mcp.WithDescription("Fetch items of a model from the backend. With id, returns the single item; without, returns all items of the model."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model: "+modelNames())),
		mcp.WithString("id", mcp.Description("Item UUID")),
	)
	return tool, s.handleGetItem
}

func (s *Server) handleGetItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, errResult := requireModel(request, "model")
	if errResult != nil {
		return errResult, nil
	}

	if id := request.GetString("id", ""); id != "" {
		item, err := s.gw.FetchItem(ctx, model, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch %s %s: %v", model, id, err)), nil
		}
		return jsonResult(item, "item")
	}

	items, err := s.gw.FetchItems(ctx, model)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch %s items: %v", model, err)), nil
	}
	return jsonResult(items, "items")
}

// scout_related
func (s *Server) relatedTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_related",
		mcp.WithDescription("Fetch the items of model_b linked to the model_a item with the given id, e.g. the ratings of a result."),
		mcp.WithString("id", mcp.Required(), mcp.Description("UUID of the model_a item")),
		mcp.WithString("model_a", mcp.Required(), mcp.Description("Model of the item: "+modelNames())),
		mcp.WithString("model_b", mcp.Required(), mcp.Description("Model of the related items: "+modelNames())),
		mcp.WithBoolean("limit_to_user", mcp.Description("Only return items owned by the calling user (default false)")),
	)
	return tool, s.handleRelated
}

func (s *Server) handleRelated(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	modelA, errResult := requireModel(request, "model_a")
	if errResult != nil {
		return errResult, nil
	}
	modelB, errResult := requireModel(request, "model_b")
	if errResult != nil {
		return errResult, nil
	}

	items, err := s.gw.FetchRelatedItems(ctx, id, modelA, modelB, request.GetBool("limit_to_user", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch related items: %v", err)), nil
	}
	return jsonResult(items, "items")
}

// scout_rate
func (s *Server) rateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_rate",
		mcp.WithDescription("Record a thumbs up (good_response=true) or thumbs down (false) for a result."),
		mcp.WithString("result_id", mcp.Required(), mcp.Description("Result UUID")),
		mcp.WithBoolean("good_response", mcp.Required(), mcp.Description("true for thumbs up, false for thumbs down")),
	)
	return tool, s.handleRate
}

func (s *Server) handleRate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("result_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: result_id"), nil
	}
	good, err := request.RequireBool("good_response")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: good_response"), nil
	}

	out, err := s.gw.RateResponse(ctx, client.RatingRequest{ResultID: id, GoodResponse: good})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit rating: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"result_id": id,
		"thumbs":    aggregate.ThumbsFor(good),
		"message":   out.Message,
	}, "rating")
}

// scout_summary
func (s *Server) summaryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("scout_summary",
		mcp.WithDescription("Summarise the review: project name, review type (gates covered), the project's results summary, and counts of negative results per category."),
	)
	return tool, s.handleSummary
}

func (s *Server) handleSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.agg.Summarise(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarise: %v", err)), nil
	}
	return jsonResult(sum, "summary")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func requireModel(request mcp.CallToolRequest, key string) (models.Model, *mcp.CallToolResult) {
	raw, err := request.RequireString(key)
	if err != nil {
		return "", mcp.NewToolResultError("missing required parameter: " + key)
	}
	m, ok := models.ParseModel(raw)
	if !ok {
		return "", mcp.NewToolResultError(fmt.Sprintf("unknown model %q (want one of %s)", raw, modelNames()))
	}
	return m, nil
}

func modelNames() string {
	names := make([]string, len(models.Models))
	for i, m := range models.Models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal %s: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
