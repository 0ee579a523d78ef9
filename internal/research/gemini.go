package research

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEngine implements Engine on top of the Gemini API. Each run
// expands the query into search directions, gathers learnings per
// direction (optionally with Google Search grounding and URL context),
// recurses on follow-up questions up to the requested depth, and
// synthesizes a final markdown report.
type GeminiEngine struct {
	client     *genai.Client
	model      string
	grounding  bool
	urlContext bool
}

// NewGeminiEngine creates a Gemini-backed research engine.
func NewGeminiEngine(ctx context.Context, apiKey, model string, grounding, urlContext bool) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing Gemini client: %w", err)
	}
	return &GeminiEngine{
		client:     client,
		model:      model,
		grounding:  grounding,
		urlContext: urlContext,
	}, nil
}

// Research runs the full pipeline: expand the query, gather per depth
// level, then synthesize the report.
func (e *GeminiEngine) Research(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = func(string, string) {}
	}

	depth := ClampLevel(req.Depth, 3)
	breadth := ClampLevel(req.Breadth, 3)

	grounding := e.grounding
	if req.Grounding != nil {
		grounding = *req.Grounding
	}
	urlContext := e.urlContext
	if req.URLContext != nil {
		urlContext = *req.URLContext
	}

	learnings := append([]string(nil), req.ExistingLearnings...)
	seen := make(map[string]bool)
	var visited []string

	queries := []string{req.Query}
	if breadth > 1 {
		progress("expand", req.Query)
		expanded, err := e.expandQueries(ctx, req, breadth)
		if err == nil && len(expanded) > 0 {
			queries = expanded
		}
		// Expansion failure is non-fatal: fall back to the raw query.
	}

	for level := 0; level < depth; level++ {
		var levelLearnings []string
		for _, q := range queries {
			progress("search", q)
			found, urls, err := e.gather(ctx, q, req.Goal, grounding, urlContext)
			if err != nil {
				// One failed direction must not sink the run; later
				// directions may still produce learnings.
				progress("search-error", err.Error())
				continue
			}
			levelLearnings = append(levelLearnings, found...)
			for _, u := range urls {
				if !seen[u] {
					seen[u] = true
					visited = append(visited, u)
				}
			}
		}

		learnings = append(learnings, levelLearnings...)

		if level+1 >= depth || len(levelLearnings) == 0 {
			break
		}

		// Narrow the fan-out as we go deeper, like a search frontier.
		breadth = (breadth + 1) / 2
		next, err := e.followUps(ctx, req.Query, levelLearnings, breadth)
		if err != nil || len(next) == 0 {
			break
		}
		queries = next
	}

	if len(learnings) == 0 {
		return Result{}, fmt.Errorf("research produced no learnings for %q", req.Query)
	}

	progress("report", req.Query)
	report, err := e.synthesize(ctx, req.Query, learnings)
	if err != nil {
		return Result{}, fmt.Errorf("synthesizing report: %w", err)
	}

	return Result{
		Learnings:   learnings,
		VisitedURLs: visited,
		Content:     report,
	}, nil
}

// expandQueries turns the user query into up to n distinct search
// directions.
func (e *GeminiEngine) expandQueries(ctx context.Context, req Request, n int) ([]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate up to %d distinct web search queries to research the topic below. ", n)
	sb.WriteString("Return one query per line, no numbering, no commentary.\n\nTopic: ")
	sb.WriteString(req.Query)
	if req.Goal != "" {
		sb.WriteString("\nResearch goal: " + req.Goal)
	}
	if len(req.ExistingLearnings) > 0 {
		sb.WriteString("\nAlready known (do not repeat):\n" + bulleted(req.ExistingLearnings))
	}

	text, err := e.generate(ctx, sb.String())
	if err != nil {
		return nil, err
	}
	return splitLines(text, n), nil
}

// gather runs one grounded generation for a single search direction and
// returns the extracted learnings plus the grounding source URLs.
func (e *GeminiEngine) gather(ctx context.Context, query, goal string, grounding, urlContext bool) ([]string, []string, error) {
	var sb strings.Builder
	sb.WriteString("Research the following query and list the most important factual learnings. ")
	sb.WriteString("Each learning must be a single dense sentence starting with \"- \". ")
	sb.WriteString("Prefer concrete facts, numbers, names and dates.\n\nQuery: ")
	sb.WriteString(query)
	if goal != "" {
		sb.WriteString("\nGoal: " + goal)
	}

	config := &genai.GenerateContentConfig{}
	if grounding {
		config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if urlContext {
		config.Tools = append(config.Tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(sb.String()), config)
	if err != nil {
		return nil, nil, fmt.Errorf("grounded generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, nil, fmt.Errorf("empty response for query %q", query)
	}

	return parseLearnings(text), groundingURLs(resp), nil
}

// followUps derives the next level's search queries from what this
// level learned.
func (e *GeminiEngine) followUps(ctx context.Context, topic string, learnings []string, n int) ([]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Given the research topic %q and the learnings below, ", topic)
	fmt.Fprintf(&sb, "generate up to %d follow-up search queries that dig into gaps or open questions. ", n)
	sb.WriteString("Return one query per line, no numbering.\n\nLearnings:\n")
	sb.WriteString(bulleted(learnings))

	text, err := e.generate(ctx, sb.String())
	if err != nil {
		return nil, err
	}
	return splitLines(text, n), nil
}

// synthesize renders the final report from all accumulated learnings.
func (e *GeminiEngine) synthesize(ctx context.Context, topic string, learnings []string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a detailed markdown research report on %q. ", topic)
	sb.WriteString("Use the learnings below as your source material; organize them into sections ")
	sb.WriteString("with a summary at the top. Do not invent facts beyond the learnings.\n\nLearnings:\n")
	sb.WriteString(bulleted(learnings))

	return e.generate(ctx, sb.String())
}

// generate is the plain ungrounded generation helper used by the
// expansion, follow-up and synthesis steps.
func (e *GeminiEngine) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), &genai.GenerateContentConfig{})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// groundingURLs pulls source URIs out of the grounding metadata.
func groundingURLs(resp *genai.GenerateContentResponse) []string {
	var urls []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
				urls = append(urls, chunk.Web.URI)
			}
		}
	}
	return urls
}

// parseLearnings extracts "- " bullet lines from model output.
func parseLearnings(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "- "); ok {
			if rest = strings.TrimSpace(rest); rest != "" {
				out = append(out, rest)
			}
		}
	}
	return out
}

// splitLines returns up to n non-empty trimmed lines.
func splitLines(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func bulleted(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	return sb.String()
}
