// Package openapi turns OpenAPI 3 and Swagger 2 documents into API entries
// ready to be registered with the backend.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("document is neither OpenAPI 3 nor Swagger 2")

// Parse loads a YAML or JSON document. Swagger 2 documents are converted to
// OpenAPI 3.
func Parse(content []byte) (*Document, error) {
	var probe struct {
		OpenAPI string `yaml:"openapi"`
		Swagger string `yaml:"swagger"`
	}
	if err := yaml.Unmarshal(content, &probe); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	switch {
	case strings.HasPrefix(probe.OpenAPI, "3"):
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(content)
		if err != nil {
			return nil, fmt.Errorf("failed to load openapi spec: %w", err)
		}
		return &Document{spec: doc, version: doc.OpenAPI}, nil

	case strings.HasPrefix(probe.Swagger, "2"):
		jsonContent, err := toJSON(content)
		if err != nil {
			return nil, err
		}
		var doc2 openapi2.T
		if err := json.Unmarshal(jsonContent, &doc2); err != nil {
			return nil, fmt.Errorf("failed to load swagger spec: %w", err)
		}
		doc3, err := openapi2conv.ToV3(&doc2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert swagger spec: %w", err)
		}
		// without a host the converter drops basePath
		if len(doc3.Servers) == 0 && doc2.BasePath != "" {
			doc3.Servers = openapi3.Servers{{URL: doc2.BasePath}}
		}
		log.Debug().Str("swagger", doc2.Swagger).Msg("Converted Swagger 2 document to OpenAPI 3")
		return &Document{spec: doc3, version: doc2.Swagger}, nil
	}
	return nil, ErrUnknownFormat
}

// toJSON re-encodes YAML as JSON. JSON input is valid YAML so it passes through.
func toJSON(content []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, "{") {
		return content, nil
	}
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	out, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to convert document to json: %w", err)
	}
	return out, nil
}

// normalize converts YAML maps with non-string keys (response codes such as
// 200) into JSON-compatible maps.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	}
	return v
}
