// Package config loads cortex-positions settings.
//
// Precedence, highest first:
//  1. Environment variables (CORTEX_POSITIONS_*, nested keys joined with "_")
//  2. Project config file (.cortex-positions/config.yml or config.yaml)
//  3. Built-in defaults
package config

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Dir is the per-project configuration and state directory.
const Dir = ".cortex-positions"

// Config represents the complete cortex-positions configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Validate ValidateConfig `yaml:"validate" mapstructure:"validate"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
}

// PathsConfig defines which files to extract and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// ExtractConfig tunes the batch extractor.
type ExtractConfig struct {
	Workers int  `yaml:"workers" mapstructure:"workers"` // parallel files
	Strict  bool `yaml:"strict" mapstructure:"strict"`   // syntax errors fail the file
	Macros  bool `yaml:"macros" mapstructure:"macros"`   // scan #define directives
}

// ValidateConfig tunes fixture checking.
type ValidateConfig struct {
	FailOnUnexpected bool `yaml:"fail_on_unexpected" mapstructure:"fail_on_unexpected"`
}

// StorageConfig locates the SQLite export.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.c",
				"**/*.h",
				"**/*.cc",
				"**/*.cpp",
				"**/*.cxx",
				"**/*.hpp",
				"**/*.hh",
				"**/*.py",
				"**/*.java",
				"**/*.go",
				"**/*.rs",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.rb",
				"**/*.php",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
			},
		},
		Extract: ExtractConfig{
			Workers: runtime.NumCPU(),
			Strict:  false,
			Macros:  true,
		},
		Validate: ValidateConfig{
			FailOnUnexpected: false,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(Dir, "symbols.db"),
		},
	}
}

// Extensions extracts unique file extensions from the include patterns.
// Returns extensions with leading dot (e.g., []string{".c", ".h"}).
func (c *Config) Extensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, pattern := range c.Paths.Include {
		ext := extractExtension(pattern)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	return exts
}

// extractExtension extracts the file extension from a glob pattern.
// Examples: "**/*.c" -> ".c", "*.hpp" -> ".hpp", "src/**" -> "".
func extractExtension(pattern string) string {
	i := strings.LastIndex(pattern, "*.")
	if i < 0 {
		return ""
	}
	ext := pattern[i+1:]
	if strings.ContainsAny(ext, "*?[{/") {
		return ""
	}
	return ext
}
