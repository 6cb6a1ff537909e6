// Package manifest reads the application manifest (start/app.yaml) and the
// package metadata file found at the application root.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/ignitor/pkg/loader"
)

// DefaultFile is the manifest location relative to the app root.
const DefaultFile = "start/app"

// manifestSuffixes are tried when the manifest path has no extension.
var manifestSuffixes = []string{".yaml", ".yml"}

// packageFiles are tried in order at the app root. JSON is valid YAML.
var packageFiles = []string{"package.yaml", "package.yml", "package.json"}

// Manifest lists what the application wants registered.
type Manifest struct {
	Providers    []string   `yaml:"providers"`
	AceProviders []string   `yaml:"aceProviders"`
	Aliases      OrderedMap `yaml:"aliases"`
	Commands     []string   `yaml:"commands"`
}

// Package is the optional package metadata.
type Package struct {
	Name             string     `yaml:"name"`
	Version          string     `yaml:"version"`
	FrameworkVersion string     `yaml:"frameworkVersion"`
	Autoload         OrderedMap `yaml:"autoload"`
}

// Load reads the manifest at file, relative to root unless absolute. A
// missing manifest is a loader NotFound error; a malformed one is a load error.
func Load(root, file string) (*Manifest, error) {
	p := file
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}

	candidates := []string{p}
	if filepath.Ext(p) == "" {
		candidates = candidates[:0]
		for _, s := range manifestSuffixes {
			candidates = append(candidates, p+s)
		}
	}

	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, loader.Failed(file, err)
		}
		m, err := Parse(data)
		if err != nil {
			return nil, loader.Failed(file, err)
		}
		return m, nil
	}
	return nil, loader.NotFound(file)
}

// Parse decodes manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// LoadPackage reads the package metadata at root. The file is optional: when
// none exists an empty Package is returned.
func LoadPackage(root string) (*Package, error) {
	for _, name := range packageFiles {
		p := filepath.Join(root, name)
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, loader.Failed(name, err)
		}
		var pkg Package
		if err := yaml.Unmarshal(data, &pkg); err != nil {
			return nil, loader.Failed(name, fmt.Errorf("parse package file: %w", err))
		}
		return &pkg, nil
	}
	return &Package{}, nil
}
