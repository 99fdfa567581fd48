package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, sample{ID: "1", Title: "Hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"id\":\"1\",\"title\":\"Hello\"}\n" {
		t.Fatalf("unexpected json: %q", got)
	}
}

func TestJSONFormatterIndent(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{Indent: true}).Write(&buf, sample{ID: "1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": \"1\"") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	payload := []sample{{ID: "1", Title: "Hello", Tags: []string{"a"}}}
	if err := (YAMLFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "- id: \"1\"\n  title: Hello\n  tags:\n    - a\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected yaml:\n%s\nwant:\n%s", got, want)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "json", "JSON"} {
		f, err := ByName(name)
		if err != nil {
			t.Fatalf("by name %q: %v", name, err)
		}
		if _, ok := f.(JSONFormatter); !ok {
			t.Fatalf("expected json formatter for %q, got %T", name, f)
		}
	}
	for _, name := range []string{"yaml", "yml"} {
		f, err := ByName(name)
		if err != nil {
			t.Fatalf("by name %q: %v", name, err)
		}
		if _, ok := f.(YAMLFormatter); !ok {
			t.Fatalf("expected yaml formatter for %q, got %T", name, f)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
