package fs

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/budgetry/pkg/core"
)

func TestSerializers(t *testing.T) {
	doc := core.Document{
		ID:      "orgs/o/budgets/b/notes/n",
		Content: "Trim the travel line",
		Metadata: core.Metadata{
			"authorId":   "user_1",
			"sharedWith": []any{"a", "b"},
			"limits": map[string]any{
				"travel": "low",
			},
		},
	}

	serializers := DefaultSerializers(false)

	for _, ext := range []string{".json", ".yaml", ".yml", ".md"} {
		t.Run(ext, func(t *testing.T) {
			s := serializers[ext]

			data, err := s.Serialize(doc)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}

			parsed, err := s.Parse(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if strings.TrimSpace(parsed.Content) != doc.Content {
				t.Errorf("Content mismatch. Want %q, got %q", doc.Content, parsed.Content)
			}
			if parsed.Metadata["authorId"] != "user_1" {
				t.Errorf("authorId mismatch: %v", parsed.Metadata["authorId"])
			}
			if _, leaked := parsed.Metadata[contentKey]; leaked {
				t.Error("content key leaked into metadata")
			}
			tags, ok := parsed.Metadata["sharedWith"].([]any)
			if !ok || len(tags) != 2 {
				t.Errorf("sharedWith mismatch: %#v", parsed.Metadata["sharedWith"])
			}
		})
	}
}

func TestMarkdownSerializer(t *testing.T) {
	s := &MarkdownSerializer{}

	t.Run("No Frontmatter", func(t *testing.T) {
		doc, err := s.Parse(strings.NewReader("just a body"))
		if err != nil {
			t.Fatal(err)
		}
		if doc.Content != "just a body" || len(doc.Metadata) != 0 {
			t.Errorf("unexpected doc: %+v", doc)
		}
	})

	t.Run("Unclosed Frontmatter", func(t *testing.T) {
		if _, err := s.Parse(strings.NewReader("---\nname: x\nbody")); err == nil {
			t.Error("expected error for unclosed frontmatter")
		}
	})

	t.Run("Empty Metadata Omits Frontmatter", func(t *testing.T) {
		data, err := s.Serialize(core.Document{Content: "body"})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "body" {
			t.Errorf("expected bare body, got %q", data)
		}
	})

	t.Run("CRLF Frontmatter", func(t *testing.T) {
		doc, err := s.Parse(strings.NewReader("---\r\nname: Ops\r\n---\r\nbody"))
		if err != nil {
			t.Fatal(err)
		}
		if doc.Metadata["name"] != "Ops" {
			t.Errorf("expected name Ops, got %v", doc.Metadata["name"])
		}
		if doc.Content != "body" {
			t.Errorf("expected body, got %q", doc.Content)
		}
	})
}

func TestStrictNumbers(t *testing.T) {
	input := "---\nstartYear: 2025\nratio: 0.5\n---\n"

	loose, err := (&MarkdownSerializer{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loose.Metadata["startYear"].(int); !ok {
		t.Errorf("expected int in loose mode, got %T", loose.Metadata["startYear"])
	}

	strict, err := (&MarkdownSerializer{Strict: true}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := strict.Metadata["startYear"].(json.Number); !ok || n.String() != "2025" {
		t.Errorf("expected json.Number 2025, got %#v", strict.Metadata["startYear"])
	}

	js, err := (&JSONSerializer{Strict: true}).Parse(strings.NewReader(`{"startYear": 2025}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := js.Metadata["startYear"].(json.Number); !ok {
		t.Errorf("expected json.Number from strict JSON, got %T", js.Metadata["startYear"])
	}
}
