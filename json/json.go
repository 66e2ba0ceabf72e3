// Package json encodes generated documents and converts YAML input to JSON without reordering keys.
package json

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
	"gopkg.in/yaml.v3"
)

// Encode writes v as JSON followed by a newline. An indentation of 0 writes compact JSON.
func Encode(w io.Writer, v any, indentation int) error {
	e := gojson.NewEncoder(w)
	e.SetEscapeHTML(false)
	if indentation > 0 {
		e.SetIndent("", strings.Repeat(" ", indentation))
	}
	return e.Encode(v)
}

// YAMLToJSON will convert the provided YAML node to JSON in a stable way not reordering keys.
func YAMLToJSON(node *yaml.Node, indentation int, buffer io.Writer) error {
	v, err := YAMLToValue(node)
	if err != nil {
		return err
	}

	return Encode(buffer, v, indentation)
}

// YAMLToValue converts the provided YAML node to plain values. Mappings become ordered maps.
func YAMLToValue(node *yaml.Node) (any, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return YAMLToValue(node.Content[0])
	case yaml.SequenceNode:
		return handleSequenceNode(node)
	case yaml.MappingNode:
		return handleMappingNode(node)
	case yaml.ScalarNode:
		return handleScalarNode(node)
	case yaml.AliasNode:
		return YAMLToValue(node.Alias)
	default:
		return nil, fmt.Errorf("unknown node kind: %s", nodeKindToString(node.Kind))
	}
}

func handleMappingNode(node *yaml.Node) (any, error) {
	v := sequencedmap.New[string, any]()
	for i, n := range node.Content {
		if i%2 == 0 {
			continue
		}
		keyNode := node.Content[i-1]
		kv, err := YAMLToValue(keyNode)
		if err != nil {
			return nil, err
		}

		if kv == nil || reflect.TypeOf(kv).Kind() != reflect.String {
			keyData, err := gojson.Marshal(kv)
			if err != nil {
				return nil, err
			}
			kv = string(keyData)
		}

		vv, err := YAMLToValue(n)
		if err != nil {
			return nil, err
		}

		v.Set(fmt.Sprintf("%v", kv), vv)
	}

	return v, nil
}

func handleSequenceNode(node *yaml.Node) (any, error) {
	v := make([]any, len(node.Content))
	for i, n := range node.Content {
		vv, err := YAMLToValue(n)
		if err != nil {
			return nil, err
		}

		v[i] = vv
	}

	return v, nil
}

func handleScalarNode(node *yaml.Node) (any, error) {
	var v any

	if err := node.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}

func nodeKindToString(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "object"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
