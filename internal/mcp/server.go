package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vocalia/hybridrag/internal/registry"
	"github.com/vocalia/hybridrag/internal/search"
	"github.com/vocalia/hybridrag/pkg/version"
)

// Server is the MCP server for hybridrag. It exposes tenant-scoped hybrid
// search and invalidation as tools over stdio, so AI clients can query
// tenant knowledge directly.
type Server struct {
	mcp      *mcp.Server
	registry *registry.Registry
	logger   *slog.Logger
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the natural-language search query"`
	TenantID string `json:"tenant_id" jsonschema:"tenant whose knowledge base to search"`
	Lang     string `json:"lang,omitempty" jsonschema:"knowledge base language code, default en"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results  []ResultOutput `json:"results" jsonschema:"ranked results, best first"`
	Degraded bool           `json:"degraded" jsonschema:"true when semantic scoring was unavailable and only lexical matching ran"`
}

// ResultOutput is one fused search result.
type ResultOutput struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
	SparseScore float64 `json:"sparse_score,omitempty"`
	DenseScore  float64 `json:"dense_score,omitempty"`
	Intent      string  `json:"intent,omitempty"`
}

// InvalidateInput defines the input schema for the invalidate tool.
type InvalidateInput struct {
	TenantID string `json:"tenant_id" jsonschema:"tenant whose cached engines to drop"`
}

// InvalidateOutput defines the output schema for the invalidate tool.
type InvalidateOutput struct {
	Removed int `json:"removed" jsonschema:"number of engine instances dropped"`
}

// StatusInput defines the input schema for the status tool (no parameters).
type StatusInput struct{}

// StatusOutput defines the output schema for the status tool.
type StatusOutput struct {
	Version string   `json:"version"`
	Engines []string `json:"engines" jsonschema:"cached tenant:lang engine keys"`
}

// NewServer creates a new MCP server over a registry.
func NewServer(reg *registry.Registry) (*Server, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}

	s := &Server{
		registry: reg,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "hybridrag",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Search a tenant's knowledge base. Combines lexical (BM25) and semantic matching and returns a ranked list of knowledge fragments.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "invalidate",
		Description: "Drop the cached search engines for a tenant after its knowledge base changed. The next query rebuilds from fresh content.",
	}, s.invalidateHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Report server version and which tenant engines are currently cached.",
	}, s.statusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 3))
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if input.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if input.TenantID == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("tenant_id parameter is required")
	}

	lang := input.Lang
	if lang == "" {
		lang = "en"
	}

	resp, err := s.registry.Search(ctx, input.TenantID, lang, input.Query, search.Options{Limit: input.Limit})
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	output := SearchOutput{
		Results:  make([]ResultOutput, 0, len(resp.Results)),
		Degraded: resp.Degraded,
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, ResultOutput{
			ID:          r.Chunk.ID,
			Text:        r.Chunk.Text,
			Score:       r.RRFScore,
			SparseScore: r.SparseScore,
			DenseScore:  r.DenseScore,
			Intent:      r.Chunk.Intent,
		})
	}
	return nil, output, nil
}

func (s *Server) invalidateHandler(_ context.Context, _ *mcp.CallToolRequest, input InvalidateInput) (
	*mcp.CallToolResult,
	InvalidateOutput,
	error,
) {
	if input.TenantID == "" {
		return nil, InvalidateOutput{}, NewInvalidParamsError("tenant_id parameter is required")
	}
	return nil, InvalidateOutput{Removed: s.registry.Invalidate(input.TenantID)}, nil
}

func (s *Server) statusHandler(context.Context, *mcp.CallToolRequest, StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	return nil, StatusOutput{
		Version: version.Version,
		Engines: s.registry.Keys(),
	}, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
