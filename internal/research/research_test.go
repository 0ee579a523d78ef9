package research

import (
	"strings"
	"testing"
)

// --- ClampLevel ---

func TestClampLevel_ZeroUsesFallback(t *testing.T) {
	if got := ClampLevel(0, 3); got != 3 {
		t.Errorf("ClampLevel(0, 3) = %d, want 3", got)
	}
}

func TestClampLevel_Bounds(t *testing.T) {
	if got := ClampLevel(-2, 3); got != 1 {
		t.Errorf("ClampLevel(-2, 3) = %d, want 1", got)
	}
	if got := ClampLevel(9, 3); got != 5 {
		t.Errorf("ClampLevel(9, 3) = %d, want 5", got)
	}
	if got := ClampLevel(4, 3); got != 4 {
		t.Errorf("ClampLevel(4, 3) = %d, want 4", got)
	}
}

// --- parseLearnings ---

func TestParseLearnings_ExtractsBullets(t *testing.T) {
	text := "Here is what I found:\n- First fact\n- Second fact\nsome prose\n-   Third fact  \n"
	got := parseLearnings(text)

	if len(got) != 3 {
		t.Fatalf("got %d learnings, want 3: %v", len(got), got)
	}
	if got[0] != "First fact" || got[2] != "Third fact" {
		t.Errorf("unexpected learnings: %v", got)
	}
}

func TestParseLearnings_EmptyInput(t *testing.T) {
	if got := parseLearnings("no bullets here"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

// --- splitLines ---

func TestSplitLines_CapsAndTrims(t *testing.T) {
	text := "- query one\n\nquery two  \nquery three\nquery four"
	got := splitLines(text, 3)

	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	if got[0] != "query one" {
		t.Errorf("got[0] = %q, want bullet prefix stripped", got[0])
	}
	if got[1] != "query two" {
		t.Errorf("got[1] = %q, want trimmed", got[1])
	}
}

// --- RenderReport ---

func TestRenderReport_IncludesLearningsAndSources(t *testing.T) {
	report := RenderReport("go generics",
		[]string{"type parameters landed in 1.18"},
		[]string{"https://go.dev/blog/intro-generics"},
	)

	if !strings.Contains(report, "# Research Report: go generics") {
		t.Error("report should contain the title")
	}
	if !strings.Contains(report, "1. type parameters landed in 1.18") {
		t.Error("report should number learnings")
	}
	if !strings.Contains(report, "- https://go.dev/blog/intro-generics") {
		t.Error("report should list sources")
	}
}

func TestRenderReport_EmptyRun(t *testing.T) {
	report := RenderReport("quiet topic", nil, nil)

	if !strings.Contains(report, "No learnings were produced") {
		t.Error("report should mention missing learnings")
	}
	if !strings.Contains(report, "No sources were visited") {
		t.Error("report should mention missing sources")
	}
}
