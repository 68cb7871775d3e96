package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/legichat/legichat/pkg/catalog"
	"github.com/legichat/legichat/pkg/debug"
	"github.com/legichat/legichat/pkg/observability"
)

const (
	// LegislatorToolName is the function name offered to the backend.
	LegislatorToolName = "get_legislator_info"

	// similarityThreshold is the minimum trigram score for a fuzzy match.
	similarityThreshold = 0.3

	// maxMatches caps how many candidates the search returns.
	maxMatches = 10

	// maxDetailed caps how many candidates get seat enrichment and
	// appear in the summary.
	maxDetailed = 5
)

var legislatorSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"name": {
			"type": "string",
			"description": "Legislator name (full or partial, typos tolerated)"
		}
	},
	"required": ["name"]
}`)

// LegislatorResolver resolves free-text legislator names against the
// catalog. It is the single tool of the chat engine.
type LegislatorResolver struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

var _ Executor = (*LegislatorResolver)(nil)

// NewLegislatorResolver creates a resolver backed by the given catalog.
func NewLegislatorResolver(cat catalog.Catalog, logger *slog.Logger) *LegislatorResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegislatorResolver{catalog: cat, logger: logger}
}

// Definitions returns the get_legislator_info tool definition.
func (r *LegislatorResolver) Definitions() []ToolDef {
	return []ToolDef{{
		Name: LegislatorToolName,
		Description: "Get information about legislators matching a name. " +
			"Returns up to 5 matches with party, district, and status. " +
			"Use this when the user asks about a specific legislator or representative. " +
			"Supports fuzzy matching for misspelled or partial names. " +
			`Examples: "Who is Rep. Smith?", "Tell me about Jane Doe"`,
		Parameters: legislatorSchema,
	}}
}

// CanExecute reports whether this resolver handles the tool name.
func (r *LegislatorResolver) CanExecute(toolName string) bool {
	return toolName == LegislatorToolName
}

// Execute resolves the name argument against the catalog. Lookup
// failures degrade to the no-match message so the backend can recover
// by asking the user for a different spelling.
func (r *LegislatorResolver) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	var args struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return &ToolResult{
			CallID:  call.ID,
			Output:  fmt.Sprintf("Invalid arguments for %s: expected a JSON object with a 'name' string.", LegislatorToolName),
			IsError: true,
		}, nil
	}

	debug.Log("tools", "legislator lookup", "query", args.Name)

	candidates, err := r.catalog.SearchByName(ctx, args.Name, similarityThreshold, maxMatches)
	if err != nil {
		r.logger.Warn("legislator search failed", "name", args.Name, "error", err)
		observability.CatalogSearchesTotal.WithLabelValues("error").Inc()
		return &ToolResult{CallID: call.ID, Output: noMatchMessage(args.Name)}, nil
	}
	if len(candidates) == 0 {
		observability.CatalogSearchesTotal.WithLabelValues("no_match").Inc()
		return &ToolResult{CallID: call.ID, Output: noMatchMessage(args.Name)}, nil
	}
	observability.CatalogSearchesTotal.WithLabelValues("match").Inc()

	top := candidates
	if len(top) > maxDetailed {
		top = top[:maxDetailed]
	}

	entries := make([]string, 0, len(top))
	for _, cand := range top {
		entries = append(entries, r.describe(ctx, cand))
	}

	var header string
	if len(candidates) == 1 {
		header = fmt.Sprintf("Found 1 legislator matching '%s':", args.Name)
	} else {
		header = fmt.Sprintf("Found %d legislators matching '%s' (showing top %d):",
			len(candidates), args.Name, len(top))
	}

	return &ToolResult{
		CallID: call.ID,
		Output: header + "\n\n" + strings.Join(entries, "\n\n"),
	}, nil
}

// describe formats one candidate, enriched with the district from the
// most recent session on record.
func (r *LegislatorResolver) describe(ctx context.Context, cand catalog.Candidate) string {
	districtStr := "No district info"
	seat, err := r.catalog.LatestSeat(ctx, cand.ID)
	switch {
	case err == nil:
		districtStr = fmt.Sprintf("District %s (%d)", seat.District, seat.SessionYear)
	case !errors.Is(err, catalog.ErrNoSeat):
		r.logger.Warn("seat lookup failed", "legislator_id", cand.ID, "error", err)
	}

	party := cand.Party
	if party == "" {
		party = "Unknown party"
	}
	status := "Inactive"
	if cand.Active {
		status = "Active"
	}
	typ := cand.Type
	if typ == "" {
		typ = "N/A"
	}
	yearsServed := "N/A"
	if cand.YearsServed > 0 {
		yearsServed = fmt.Sprintf("%d", cand.YearsServed)
	}

	return fmt.Sprintf("- %s (ID: %d)\n  %s | %s | %s\n  Type: %s | Years Served: %s",
		cand.Name, cand.ID, party, districtStr, status, typ, yearsServed)
}

func noMatchMessage(name string) string {
	return fmt.Sprintf("No legislator found matching '%s'. Try searching with a different spelling or just the last name.", name)
}
