package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/centrifuge/internal/logging"
)

var (
	// ErrEmptyMetaAnnotation indicates a missing meta-annotation name
	ErrEmptyMetaAnnotation = errors.New("empty meta annotation")

	// ErrInvalidAnnotationName indicates a malformed qualified annotation name
	ErrInvalidAnnotationName = errors.New("invalid annotation name")

	// ErrEmptyNamespace indicates a missing or unusable output namespace
	ErrEmptyNamespace = errors.New("empty output namespace")

	// ErrInvalidWorkers indicates a negative parse worker count
	ErrInvalidWorkers = errors.New("invalid parse workers")

	// ErrInvalidDebounce indicates a non-positive watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidLogSettings indicates an unknown log level or format
	ErrInvalidLogSettings = errors.New("invalid log settings")
)

// qualifiedName matches dotted Java identifiers such as com.example.Mark.
var qualifiedName = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if err := validateAnnotations(&cfg.Annotations); err != nil {
		errs = append(errs, err)
	}
	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}
	if cfg.Parse.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Parse.Workers))
	}
	if cfg.Watch.DebounceMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms must be positive, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMs))
	}
	if err := validateLog(&cfg.Log); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error
	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}
	return joinErrors(errs)
}

func validateAnnotations(cfg *AnnotationConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Meta) == "" {
		errs = append(errs, fmt.Errorf("%w: meta is required", ErrEmptyMetaAnnotation))
	} else if !qualifiedName.MatchString(cfg.Meta) {
		errs = append(errs, fmt.Errorf("%w: meta %q", ErrInvalidAnnotationName, cfg.Meta))
	}

	for _, name := range cfg.Marked {
		if !qualifiedName.MatchString(name) {
			errs = append(errs, fmt.Errorf("%w: marked %q", ErrInvalidAnnotationName, name))
		}
	}

	return joinErrors(errs)
}

func validateOutput(cfg *OutputConfig) error {
	ns := strings.TrimSpace(cfg.Namespace)
	if ns == "" || ns == "." || ns == ".." || strings.ContainsAny(ns, `/\`) {
		return fmt.Errorf("%w: namespace must be a single directory name, got %q", ErrEmptyNamespace, cfg.Namespace)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	var errs []error
	if !logging.ValidLevel(logging.Level(cfg.Level)) {
		errs = append(errs, fmt.Errorf("%w: level must be debug, info, warn or error, got %q", ErrInvalidLogSettings, cfg.Level))
	}
	switch logging.Format(strings.ToLower(cfg.Format)) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: format must be 'text' or 'json', got %q", ErrInvalidLogSettings, cfg.Format))
	}
	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear
// formatting. Every error stays matchable with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	verbs := strings.TrimSuffix(strings.Repeat("%w\n  - ", len(errs)), "\n  - ")
	args := make([]any, len(errs))
	for i, err := range errs {
		args[i] = err
	}
	return fmt.Errorf("validation failed:\n  - "+verbs, args...)
}
