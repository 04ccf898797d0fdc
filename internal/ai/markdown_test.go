package ai

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("## Setup\nFeet shoulder width\nbar on traps\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.Contains(html, "<h2>Setup</h2>") {
		t.Fatalf("expected heading, got %q", html)
	}
	if !strings.Contains(html, "Feet shoulder width<br>") {
		t.Fatalf("expected hard wrap, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected raw html to be dropped, got %q", html)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"title":"A"}`, want: `{"title":"A"}`},
		{name: "fenced", input: "```json\n{\"title\":\"A\"}\n```", want: `{"title":"A"}`},
		{name: "chatter", input: "Here you go:\n{\"days\":[{}]}\nEnjoy!", want: `{"days":[{}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := ExtractJSON("no json here"); err == nil {
		t.Fatalf("expected error for missing object")
	}
}
