package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a YAML path such as
// "placement.step" or "apps[1].title", and where it came from.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	node := &root
	for _, part := range strings.Split(path, ".") {
		key, index, err := splitIndex(part)
		if err != nil {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		node = mappingValue(node, key)
		if node == nil {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		if index >= 0 {
			if node.Kind != yaml.SequenceNode || index >= len(node.Content) {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = node.Content[index]
		}
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return value, nil
}

// splitIndex splits "apps[2]" into ("apps", 2). Index is -1 when absent.
func splitIndex(part string) (string, int, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return part, -1, nil
	}
	if !strings.HasSuffix(part, "]") || open == 0 {
		return "", 0, fmt.Errorf("malformed segment %q", part)
	}
	n, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("malformed index in %q", part)
	}
	return part[:open], n, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
