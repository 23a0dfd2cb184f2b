// Package discovery finds the Java sources that take part in extraction.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	root    glob.Glob // pattern without a leading **/, matched against root-level files
}

// FileDiscovery handles file discovery with glob patterns and ignore rules.
type FileDiscovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
	ignoredDirs    []string // slash-separated, relative to rootDir
}

// NewFileDiscovery creates a file discovery instance. Paths under
// ignoredDirs (relative to rootDir) are always skipped, whatever the
// patterns say.
func NewFileDiscovery(rootDir string, include, ignore []string, ignoredDirs ...string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.includes, err = compile(include); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compile(ignore); err != nil {
		return nil, err
	}

	for _, dir := range ignoredDirs {
		if rel, ok := fd.relative(dir); ok && rel != "." && rel != "" {
			fd.ignoredDirs = append(fd.ignoredDirs, rel)
		}
	}
	return fd, nil
}

func compile(patterns []string) ([]compiledPattern, error) {
	var out []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if cp.root, err = glob.Compile(simplified, '/'); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// RootDir returns the directory discovery walks.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the directory tree and returns matching source files in
// lexical order. Ignored directories are not descended into.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, ok := fd.relative(path)
		if !ok {
			return nil
		}

		if d.IsDir() {
			if relPath != "." && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if matchesAnyPattern(relPath, fd.includes) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Match reports whether path, absolute or relative to the root, is a source
// file discovery would return.
func (fd *FileDiscovery) Match(path string) bool {
	relPath, ok := fd.relative(path)
	if !ok || relPath == "." {
		return false
	}
	return !fd.shouldIgnore(relPath) && matchesAnyPattern(relPath, fd.includes)
}

// Ignored reports whether a directory or file should be skipped entirely.
func (fd *FileDiscovery) Ignored(path string) bool {
	relPath, ok := fd.relative(path)
	if !ok {
		return true
	}
	return relPath != "." && fd.shouldIgnore(relPath)
}

// relative returns path relative to the root with forward slashes. Paths
// outside the root are reported as not ok.
func (fd *FileDiscovery) relative(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fd.rootDir, path)
	}
	rel, err := filepath.Rel(fd.rootDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	for _, dir := range fd.ignoredDirs {
		if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}

	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// A directory matches its pattern with a /** suffix, so "build" is
	// ignored by "build/**" before anything inside it is visited.
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
// Root-level files also match patterns with the **/ prefix removed, so
// "**/*.java" matches both "Main.java" and "src/Main.java".
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	rootLevel := !strings.Contains(path, "/")
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if rootLevel && cp.root != nil && cp.root.Match(path) {
			return true
		}
	}
	return false
}
