package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/scout/internal/cache"
	"github.com/HendryAvila/scout/internal/research"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeEngine counts invocations and returns a canned result.
type fakeEngine struct {
	calls  int
	result research.Result
	err    error
}

func (e *fakeEngine) Research(_ context.Context, _ research.Request, progress research.ProgressFunc) (research.Result, error) {
	e.calls++
	if progress != nil {
		progress("search", "fake")
	}
	return e.result, e.err
}

// fakeUploader records offloads and can be forced to fail.
type fakeUploader struct {
	calls   int
	err     error
	lastLen int
}

func (u *fakeUploader) Offload(_ context.Context, content, query string) (string, error) {
	u.calls++
	u.lastLen = len(content)
	if u.err != nil {
		return "", u.err
	}
	return "https://storage.test/reports/" + query, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTool(engine *fakeEngine, uploader *fakeUploader, remote bool) *ResearchTool {
	return NewResearchTool(engine, cache.New(8, time.Minute), uploader, remote, testLogger())
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func getResultText(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func isErrorResult(res *mcp.CallToolResult) bool {
	return res != nil && res.IsError
}

func metaField(res *mcp.CallToolResult, key string) any {
	if res.Meta == nil {
		return nil
	}
	return res.Meta.AdditionalFields[key]
}

func smallResult() research.Result {
	return research.Result{
		Learnings:   []string{"l1", "l2"},
		VisitedURLs: []string{"https://a", "https://b", "https://c"},
		Content:     "# small report",
	}
}

// --- Definition ---

func TestResearchTool_Definition(t *testing.T) {
	tool := newTestTool(&fakeEngine{}, &fakeUploader{}, false)
	def := tool.Definition()

	if def.Name != "deep-research" {
		t.Errorf("name = %q, want deep-research", def.Name)
	}
}

// --- Input validation ---

func TestHandle_MissingQuery(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	tool := newTestTool(engine, &fakeUploader{}, false)

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if !isErrorResult(res) {
		t.Fatal("expected error result for missing query")
	}
	if engine.calls != 0 {
		t.Error("engine must not run for invalid input")
	}
}

func TestHandle_EmptyQuery(t *testing.T) {
	tool := newTestTool(&fakeEngine{result: smallResult()}, &fakeUploader{}, false)

	res, _ := tool.Handle(context.Background(), callRequest(map[string]any{"query": ""}))
	if !isErrorResult(res) {
		t.Fatal("expected error result for empty query")
	}
}

// --- Inline delivery & metadata ---

func TestHandle_InlineDelivery(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	uploader := &fakeUploader{}
	tool := newTestTool(engine, uploader, false)

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "go"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(res) {
		t.Fatalf("unexpected error result: %s", getResultText(res))
	}
	if getResultText(res) != "# small report" {
		t.Errorf("text = %q, want report inline", getResultText(res))
	}
	if uploader.calls != 0 {
		t.Error("small local report must not be offloaded")
	}

	stats, ok := metaField(res, "stats").(map[string]any)
	if !ok {
		t.Fatal("metadata missing stats")
	}
	if stats["totalLearnings"] != 2 || stats["totalSources"] != 3 {
		t.Errorf("stats = %v", stats)
	}
	if metaField(res, "reportUrl") != nil {
		t.Error("inline delivery must not carry a reportUrl")
	}
}

// --- Cache behavior ---

func TestHandle_SecondCallHitsCache(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	tool := newTestTool(engine, &fakeUploader{}, false)

	args := map[string]any{"query": "go", "depth": 2.0, "breadth": 2.0}
	first, _ := tool.Handle(context.Background(), callRequest(args))
	second, _ := tool.Handle(context.Background(), callRequest(args))

	if engine.calls != 1 {
		t.Errorf("engine ran %d times, want 1 (second call cached)", engine.calls)
	}
	if getResultText(first) != getResultText(second) {
		t.Error("cached result should be returned verbatim")
	}
}

func TestHandle_DifferentDepthMissesCache(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	tool := newTestTool(engine, &fakeUploader{}, false)

	tool.Handle(context.Background(), callRequest(map[string]any{"query": "go", "depth": 2.0}))
	tool.Handle(context.Background(), callRequest(map[string]any{"query": "go", "depth": 3.0}))

	if engine.calls != 2 {
		t.Errorf("engine ran %d times, want 2 (distinct fingerprints)", engine.calls)
	}
}

func TestHandle_ExpiredEntryReinvokesEngine(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	tool := NewResearchTool(engine, cache.New(8, 20*time.Millisecond), &fakeUploader{}, false, testLogger())

	args := map[string]any{"query": "go"}
	tool.Handle(context.Background(), callRequest(args))
	time.Sleep(60 * time.Millisecond)
	tool.Handle(context.Background(), callRequest(args))

	if engine.calls != 2 {
		t.Errorf("engine ran %d times, want 2 after TTL expiry", engine.calls)
	}
}

// --- Size threshold ---

func TestHandle_49KBInlineOnStdio(t *testing.T) {
	engine := &fakeEngine{result: research.Result{
		Learnings: []string{"l"},
		Content:   strings.Repeat("a", 49*1024),
	}}
	uploader := &fakeUploader{}
	tool := newTestTool(engine, uploader, false)

	res, _ := tool.Handle(context.Background(), callRequest(map[string]any{"query": "big"}))

	if uploader.calls != 0 {
		t.Error("49 KB report should stay inline on stdio")
	}
	if len(getResultText(res)) != 49*1024 {
		t.Error("inline text should be the full report")
	}
}

func TestHandle_51KBOffloadedOnStdio(t *testing.T) {
	engine := &fakeEngine{result: research.Result{
		Learnings: []string{"l"},
		Content:   strings.Repeat("a", 51*1024),
	}}
	uploader := &fakeUploader{}
	tool := newTestTool(engine, uploader, false)

	res, _ := tool.Handle(context.Background(), callRequest(map[string]any{"query": "big"}))

	if uploader.calls != 1 {
		t.Fatal("51 KB report should be offloaded on stdio")
	}
	if uploader.lastLen != 51*1024 {
		t.Errorf("offloaded %d bytes, want full report", uploader.lastLen)
	}
	url, _ := metaField(res, "reportUrl").(string)
	if url == "" {
		t.Fatal("metadata should carry the retrieval URL")
	}
	if !strings.Contains(getResultText(res), "curl -o") {
		t.Error("offloaded content should instruct how to fetch the report")
	}
}

func TestHandle_HTTPModeAlwaysOffloads(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	uploader := &fakeUploader{}
	tool := newTestTool(engine, uploader, true)

	tool.Handle(context.Background(), callRequest(map[string]any{"query": "tiny"}))

	if uploader.calls != 1 {
		t.Error("remote transport should offload regardless of size")
	}
}

// --- Failure handling ---

func TestHandle_EngineFailureReturnsErrorResult(t *testing.T) {
	engine := &fakeEngine{err: errors.New("pipeline exploded")}
	tool := newTestTool(engine, &fakeUploader{}, false)

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "go"}))
	if err != nil {
		t.Fatalf("Handle must not return a Go error, got %v", err)
	}
	if !isErrorResult(res) {
		t.Fatal("expected error result")
	}
	if !strings.Contains(getResultText(res), "pipeline exploded") {
		t.Error("error result should describe the failure")
	}
}

func TestHandle_UploadFailureStillResolves(t *testing.T) {
	engine := &fakeEngine{result: smallResult()}
	uploader := &fakeUploader{err: errors.New("bucket gone")}
	tool := newTestTool(engine, uploader, true)

	res, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "go"}))
	if err != nil {
		t.Fatalf("Handle must not return a Go error, got %v", err)
	}
	if isErrorResult(res) {
		t.Fatal("upload failure must not fail the whole call")
	}

	url, _ := metaField(res, "reportUrl").(string)
	if !strings.HasPrefix(url, "upload-failed:") {
		t.Errorf("reportUrl = %q, want explicit upload-failed marker", url)
	}
	if !strings.Contains(getResultText(res), "# small report") {
		t.Error("report should be delivered inline when upload fails")
	}
}

// --- Report resolution fallbacks ---

func TestHandle_FallsBackToReportPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := os.WriteFile(path, []byte("# from disk"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := &fakeEngine{result: research.Result{
		Learnings:  []string{"l"},
		ReportPath: path,
	}}
	tool := newTestTool(engine, &fakeUploader{}, false)

	res, _ := tool.Handle(context.Background(), callRequest(map[string]any{"query": "go"}))
	if getResultText(res) != "# from disk" {
		t.Errorf("text = %q, want report read from path", getResultText(res))
	}
}

func TestHandle_PlaceholderWhenReportUnreadable(t *testing.T) {
	engine := &fakeEngine{result: research.Result{
		Learnings:  []string{"the one learning"},
		ReportPath: "/nonexistent/report.md",
	}}
	tool := newTestTool(engine, &fakeUploader{}, false)

	res, _ := tool.Handle(context.Background(), callRequest(map[string]any{"query": "go"}))

	text := getResultText(res)
	if text == "" {
		t.Fatal("placeholder report must not be empty")
	}
	if !strings.Contains(text, "the one learning") {
		t.Error("placeholder should include the learnings")
	}
}
