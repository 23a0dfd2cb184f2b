package config

import (
	"path/filepath"
)

// DirName is the per-project directory holding configuration and the
// manifest database.
const DirName = ".centrifuge"

// Config represents the complete centrifuge configuration.
// It can be loaded from .centrifuge/config.yml with environment variable overrides.
type Config struct {
	Paths       PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Annotations AnnotationConfig `yaml:"annotations" mapstructure:"annotations"`
	Output      OutputConfig     `yaml:"output" mapstructure:"output"`
	Parse       ParseConfig      `yaml:"parse" mapstructure:"parse"`
	Manifest    ManifestConfig   `yaml:"manifest" mapstructure:"manifest"`
	Watch       WatchConfig      `yaml:"watch" mapstructure:"watch"`
	Log         LogConfig        `yaml:"log" mapstructure:"log"`
}

// PathsConfig defines which source files take part in extraction.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for Java sources
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// AnnotationConfig defines which annotation types are extracted.
type AnnotationConfig struct {
	Meta   string   `yaml:"meta" mapstructure:"meta"`     // marks an annotation type for extraction
	Marked []string `yaml:"marked" mapstructure:"marked"` // marked types declared outside the sources
}

// OutputConfig defines where artifacts are written.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`             // relative to the project root unless absolute
	Namespace string `yaml:"namespace" mapstructure:"namespace"` // artifact directory under Dir
}

// ParseConfig tunes the Java front-end.
type ParseConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // 0 uses every CPU
}

// ManifestConfig controls the extraction manifest database.
type ManifestConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // relative to the project root unless absolute
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn or error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"**/*.java"},
			Ignore: []string{
				".git/**",
				"build/**",
				"target/**",
				"out/**",
				".gradle/**",
				".idea/**",
			},
		},
		Annotations: AnnotationConfig{
			Meta:   "com.shhp.centrifuge.annotation.CodeExtractor",
			Marked: []string{"com.shhp.centrifuge.annotation.Centrifuge"},
		},
		Output: OutputConfig{
			Dir:       ".",
			Namespace: "centrifuge",
		},
		Parse: ParseConfig{
			Workers: 0,
		},
		Manifest: ManifestConfig{
			Enabled: true,
			Path:    filepath.Join(DirName, "manifest.db"),
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve returns p relative to rootDir unless it is absolute.
func Resolve(rootDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}
