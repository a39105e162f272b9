package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/budgetry/pkg/core"
	"gopkg.in/yaml.v3"
)

// Serializer defines how to read and write a specific file format.
type Serializer interface {
	// Parse reads from r and returns a Document (without ID).
	Parse(r io.Reader) (*core.Document, error)
	// Serialize converts the Document to bytes.
	Serialize(doc core.Document) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers(strict bool) map[string]Serializer {
	return map[string]Serializer{
		".json": &JSONSerializer{Strict: strict},
		".yaml": &YAMLSerializer{Strict: strict},
		".yml":  &YAMLSerializer{Strict: strict},
		".md":   &MarkdownSerializer{Strict: strict},
	}
}

// contentKey holds the document body in flat formats (JSON, YAML).
const contentKey = "content"

// JSONSerializer stores metadata as top-level keys and the body under "content".
type JSONSerializer struct {
	// Strict decodes numbers as json.Number to avoid precision loss.
	Strict bool
}

func (s *JSONSerializer) Parse(r io.Reader) (*core.Document, error) {
	var payload map[string]any
	decoder := json.NewDecoder(r)
	if s.Strict {
		decoder.UseNumber()
	}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return splitContent(payload), nil
}

func (s *JSONSerializer) Serialize(doc core.Document) ([]byte, error) {
	return json.MarshalIndent(joinContent(doc), "", "  ")
}

// YAMLSerializer is the YAML counterpart of JSONSerializer.
type YAMLSerializer struct {
	// Strict converts numbers to json.Number after decoding.
	Strict bool
}

func (s *YAMLSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	doc := splitContent(payload)
	if s.Strict {
		doc.Metadata = normalizeNumbers(doc.Metadata).(core.Metadata)
	}
	return doc, nil
}

func (s *YAMLSerializer) Serialize(doc core.Document) ([]byte, error) {
	return yaml.Marshal(joinContent(doc))
}

// MarkdownSerializer writes metadata as YAML frontmatter followed by the body.
type MarkdownSerializer struct {
	// Strict converts frontmatter numbers to json.Number after decoding.
	Strict bool
}

func (s *MarkdownSerializer) Parse(r io.Reader) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{Metadata: make(core.Metadata)}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		doc.Content = string(data)
		return doc, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(core.Metadata)
	}

	body := strings.TrimPrefix(string(parts[1]), "\r")
	body = strings.TrimPrefix(body, "\n")
	doc.Content = body

	if s.Strict {
		doc.Metadata = normalizeNumbers(doc.Metadata).(core.Metadata)
	}

	return doc, nil
}

func (s *MarkdownSerializer) Serialize(doc core.Document) ([]byte, error) {
	var buf bytes.Buffer
	if len(doc.Metadata) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(map[string]any(doc.Metadata)); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	}
	buf.WriteString(doc.Content)
	return buf.Bytes(), nil
}

func splitContent(payload map[string]any) *core.Document {
	doc := &core.Document{Metadata: make(core.Metadata, len(payload))}
	for k, v := range payload {
		doc.Metadata[k] = v
	}
	if c, ok := doc.Metadata[contentKey].(string); ok {
		doc.Content = c
		delete(doc.Metadata, contentKey)
	}
	return doc
}

func joinContent(doc core.Document) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	payload[contentKey] = doc.Content
	return payload
}

// normalizeNumbers converts numeric values to json.Number so YAML-backed
// documents decode the same way as strict JSON ones.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		m := make(core.Metadata, len(v))
		for k, val := range v {
			m[k] = normalizeNumbers(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[k] = normalizeNumbers(val)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, val := range v {
			l[i] = normalizeNumbers(val)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}
