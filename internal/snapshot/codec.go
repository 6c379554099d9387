package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/CZERTAINLY/golden/internal/model"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a store file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks the format from the file extension, JSON unless it is .yaml or .yml.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// document is the on disk layout. The % keys were used by the first
// releases and are read but never written.
type document struct {
	Metadata *model.Metadata         `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Options  *model.Options          `json:"options,omitempty" yaml:"options,omitempty"`
	Results  map[string][]string     `json:"results" yaml:"results"`
	Timing   map[string]model.Timing `json:"timing" yaml:"timing"`

	LegacyMetadata *model.Metadata         `json:"%metadata%,omitempty" yaml:"%metadata%,omitempty"`
	LegacyOptions  *model.Options          `json:"%options%,omitempty" yaml:"%options%,omitempty"`
	LegacyTiming   map[string]model.Timing `json:"%timing%,omitempty" yaml:"%timing%,omitempty"`
}

// Marshal serializes s. Map keys are sorted in both formats, so unchanged
// stores serialize to identical bytes.
func Marshal(s *Store, format Format) ([]byte, error) {
	doc := document{
		Metadata: &s.Metadata,
		Options:  &s.Options,
		Results:  s.Results,
		Timing:   s.Timing,
	}
	if doc.Results == nil {
		doc.Results = map[string][]string{}
	}
	if doc.Timing == nil {
		doc.Timing = map[string]model.Timing{}
	}
	for key, outputs := range doc.Results {
		if !utf8.ValidString(key) {
			return nil, fmt.Errorf("result key %q: %w", key, model.ErrBinaryOutput)
		}
		for _, output := range outputs {
			if !utf8.ValidString(output) {
				return nil, fmt.Errorf("result of %s: %w", key, model.ErrBinaryOutput)
			}
		}
	}

	var buf bytes.Buffer
	switch format {
	case YAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal validates raw against the store schema and decodes it. name
// is used in error messages.
func Unmarshal(name string, raw []byte, format Format) (*Store, error) {
	if err := model.ValidateStore(name, raw); err != nil {
		return nil, err
	}

	var doc document
	switch format {
	case YAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrStoreInvalid, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrStoreInvalid, err)
		}
	}

	s := &Store{
		Results: doc.Results,
		Timing:  doc.Timing,
	}
	switch {
	case doc.Metadata != nil:
		s.Metadata = *doc.Metadata
	case doc.LegacyMetadata != nil:
		s.Metadata = *doc.LegacyMetadata
	default:
		return nil, fmt.Errorf("%s: metadata missing: %w", name, model.ErrStoreInvalid)
	}
	switch {
	case doc.Options != nil:
		s.Options = *doc.Options
	case doc.LegacyOptions != nil:
		s.Options = *doc.LegacyOptions
	}
	if s.Timing == nil {
		s.Timing = doc.LegacyTiming
	}
	if s.Results == nil {
		s.Results = make(map[string][]string)
	}
	if s.Timing == nil {
		s.Timing = make(map[string]model.Timing)
	}
	return s, nil
}
