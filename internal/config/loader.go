package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SourceKind says where an effective config value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source locates a config value. Line and Column are 1-based and only set
// for values read from a file.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	if s.Kind != SourceFile {
		return string(s.Kind)
	}
	switch {
	case s.File == "":
		return "file"
	case s.Line > 0:
		return fmt.Sprintf("file:%s:%d:%d", s.File, s.Line, s.Column)
	default:
		return "file:" + s.File
	}
}

// ValidationError ties a config problem to its YAML path and, when loaded
// from a file, the line that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Err.Error()
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Source.File, e.Source.Line, e.Source.Column, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LoadResult is a loaded config plus the file positions of every key the
// file set. Sources is keyed by dotted YAML path, with list items as
// name[i].
type LoadResult struct {
	Config  *Config
	Sources map[string]Source
	File    string // empty when no file exists
}

// DefaultConfigPath returns ~/.config/deskwm/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskwm", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	res, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadFromPath reads path over the defaults. A missing file yields the
// defaults unchanged.
func LoadFromPath(path string) (*LoadResult, error) {
	res := &LoadResult{Config: DefaultConfig(), Sources: map[string]Source{}}

	file, err := resolveFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := res.Config.Validate(); err != nil {
			return nil, err
		}
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	if err := overlayYAML(data, res.Config); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	res.File = file
	index := sourceIndex{file: file, out: res.Sources}
	index.add("", &doc)

	if err := res.Config.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			if src, ok := res.Sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}
	return res, nil
}

// resolveFile returns the absolute, symlink-free path of an existing file.
func resolveFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// overlayYAML decodes data onto cfg, rejecting keys cfg does not have.
// An empty document leaves cfg untouched.
func overlayYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type sourceIndex struct {
	file string
	out  map[string]Source
}

func (x sourceIndex) add(path string, node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			x.add(path, child)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if path != "" {
				key = path + "." + key
			}
			x.set(key, node.Content[i+1])
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			x.set(path+"["+strconv.Itoa(i)+"]", item)
		}
	}
}

func (x sourceIndex) set(path string, node *yaml.Node) {
	x.out[path] = Source{Kind: SourceFile, File: x.file, Line: node.Line, Column: node.Column}
	x.add(path, node)
}
