package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file, expands environment variables,
// resolves stub includes relative to the file's directory and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("config file is empty: %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	stubs, err := ResolveStubs(cfg.Stubs, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.Stubs = stubs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveStubs expands file and glob includes into a flat list of
// inline stubs, preserving order. Includes resolve one level deep: an
// included file defines inline stubs, not further includes.
func ResolveStubs(stubs []Stub, baseDir string) ([]Stub, error) {
	var result []Stub
	for i, s := range stubs {
		expanded, err := resolveStub(s, baseDir)
		if err != nil {
			switch {
			case s.IsFileRef():
				return nil, fmt.Errorf("stubs[%d] (file: %s): %w", i, s.File, err)
			case s.IsGlob():
				return nil, fmt.Errorf("stubs[%d] (files: %s): %w", i, s.Files, err)
			default:
				return nil, fmt.Errorf("stubs[%d]: %w", i, err)
			}
		}
		result = append(result, expanded...)
	}
	return result, nil
}

func resolveStub(s Stub, baseDir string) ([]Stub, error) {
	switch {
	case s.IsFileRef():
		return loadStubsFromFile(ResolvePath(baseDir, s.File))
	case s.IsGlob():
		return loadStubsFromGlob(ResolvePath(baseDir, s.Files))
	default:
		return []Stub{s}, nil
	}
}

// loadStubsFromFile loads stubs from a single YAML file holding either
// one stub or a list.
func loadStubsFromFile(path string) ([]Stub, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	var content StubFileContent
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &content); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if len(content.Stubs) > 0 {
		return content.Stubs, nil
	}
	if content.Path == "" {
		return nil, fmt.Errorf("invalid stub file: missing 'path' field: %s", path)
	}
	return []Stub{content.Stub}, nil
}

// loadStubsFromGlob loads stubs from every file matching the pattern,
// in sorted path order for determinism.
func loadStubsFromGlob(pattern string) ([]Stub, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	sort.Strings(matches)

	var result []Stub
	for _, match := range matches {
		stubs, err := loadStubsFromFile(match)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", match, err)
		}
		result = append(result, stubs...)
	}
	return result, nil
}

// expandGlob expands a glob pattern. Patterns with ** go through
// doublestar for recursive matching; simple patterns use the standard
// library.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultVal := ""
		if len(submatch) >= 3 {
			defaultVal = submatch[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ResolvePath resolves a potentially relative path against a base
// directory, expanding a leading ~.
func ResolvePath(baseDir, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	if strings.HasPrefix(targetPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(baseDir, targetPath)
}
