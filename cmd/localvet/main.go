// Package main implements the localvet CLI.
//
// localvet statically checks code that uses the threadlocal package
// for the two misuses that compile fine and fail silently at runtime:
// conflicting singleton registrations and Get results published to
// other goroutines. It is a standard go/analysis driver:
//
//	localvet ./...
//	localvet -disable=sharedref ./...
//
// Scope defaults to the module found by walking up from the working
// directory to the nearest go.mod, so diagnostics are reported for
// first-party packages only. An optional localvet.yaml next to go.mod
// configures skipped packages and disabled checks:
//
//	skip:
//	  - example.com/mod/gen
//	disable:
//	  - dupfactory
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/analysis/singlechecker"
	"gopkg.in/yaml.v3"

	"github.com/atulkulk/folly/cmd/localvet/analyzer"
)

// configFile is looked up next to the module's go.mod.
const configFile = "localvet.yaml"

type config struct {
	Skip    []string `yaml:"skip"`
	Disable []string `yaml:"disable"`
}

func main() {
	applyDefaults()
	singlechecker.Main(analyzer.Analyzer)
}

// applyDefaults seeds analyzer flags from the module context and the
// optional config file. Explicit command-line flags still win: the
// driver parses them after this runs.
func applyDefaults() {
	root, module := findModule()
	if module != "" {
		setFlag("module", module)
	}
	if root == "" {
		return
	}

	cfg, err := loadConfig(filepath.Join(root, configFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "localvet: %v\n", err)
		os.Exit(2)
	}
	if len(cfg.Skip) > 0 {
		setFlag("skip", strings.Join(cfg.Skip, ","))
	}
	if len(cfg.Disable) > 0 {
		setFlag("disable", strings.Join(cfg.Disable, ","))
	}
}

// findModule walks up from the working directory to the nearest go.mod
// and returns its directory and module path.
func findModule() (root, module string) {
	dir, err := os.Getwd()
	if err != nil {
		return "", ""
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			f, err := modfile.Parse("go.mod", data, nil)
			if err != nil || f.Module == nil {
				return dir, ""
			}
			return dir, f.Module.Mod.Path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ""
		}
		dir = parent
	}
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func setFlag(name, value string) {
	if err := analyzer.Analyzer.Flags.Set(name, value); err != nil {
		fmt.Fprintf(os.Stderr, "localvet: -%s: %v\n", name, err)
		os.Exit(2)
	}
}
