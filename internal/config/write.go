package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when a config file is already
// present and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

const configHeader = `Centrifuge configuration.
Environment variables override these values, e.g. CENTRIFUGE_OUTPUT_NAMESPACE.`

// fieldComments documents the top-level sections in the written file.
var fieldComments = map[string]string{
	"paths":       "Java sources taking part in extraction (glob patterns, relative to the project root).",
	"annotations": "Annotation types annotated with meta are extracted, as are the marked types listed here.",
	"output":      "Artifacts are written to <dir>/<namespace>/<AnnotationSimpleName>.",
	"parse":       "Parser workers; 0 uses every CPU.",
	"manifest":    "SQLite database recording every round and extracted element.",
	"watch":       "Quiet period before a batch of file changes becomes a round.",
	"log":         "Diagnostics level (debug, info, warn, error) and format (text, json).",
}

// WriteDefault writes the default configuration to rootDir/.centrifuge/config.yml
// and returns the path written.
func WriteDefault(rootDir string, overwrite bool) (string, error) {
	dir := filepath.Join(rootDir, DirName)
	path := filepath.Join(dir, "config.yml")

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := MarshalDefault()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// MarshalDefault renders Default() as commented YAML.
func MarshalDefault() ([]byte, error) {
	var body yaml.Node
	if err := body.Encode(Default()); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}

	// Mapping content alternates key and value nodes.
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i]
		if comment, ok := fieldComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: configHeader,
		Content:     []*yaml.Node{&body},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	return buf.Bytes(), nil
}
