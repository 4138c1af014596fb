// Package manifest handles rbsl.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/rbsl/pkg/bytecode"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "rbsl.toml"

// Build defaults, used when the manifest leaves them empty or no manifest
// exists at all.
const (
	DefaultEntry  = "script.rbsl"
	DefaultOutput = "new_script.bc"
)

var log = commonlog.GetLogger("rbsl.manifest")

// Manifest represents an rbsl.toml project configuration.
type Manifest struct {
	Project  Project        `toml:"project"`
	Build    BuildConfig    `toml:"build"`
	Registry RegistryConfig `toml:"registry"`

	// Dir is the directory containing the rbsl.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildConfig configures compiler input and output.
type BuildConfig struct {
	Entry  string `toml:"entry"`
	Output string `toml:"output"`
	Cache  string `toml:"cache"` // compile cache database; empty disables it
}

// RegistryConfig declares the function table shared by compiler and VM.
type RegistryConfig struct {
	Version   uint16              `toml:"version"`
	Functions []bytecode.Function `toml:"functions"`
}

// Default returns the manifest used when a project has none.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses an rbsl.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warningf("%s: unknown key %s", path, key)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()

	// Catch a bad function table at load time rather than at first compile.
	if _, err := m.FunctionRegistry(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Build.Entry == "" {
		m.Build.Entry = DefaultEntry
	}
	if m.Build.Output == "" {
		m.Build.Output = DefaultOutput
	}
	if m.Registry.Version == 0 {
		m.Registry.Version = bytecode.RegistryVersion
	}
}

// FindAndLoad walks up from startDir to find an rbsl.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			log.Debugf("using manifest %s", path)
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// FunctionRegistry builds the registry the manifest declares. A manifest
// without functions gets the default function table at its declared
// registry version.
func (m *Manifest) FunctionRegistry() (*bytecode.Registry, error) {
	fns := m.Registry.Functions
	if len(fns) == 0 {
		fns = bytecode.DefaultFunctions()
	}
	return bytecode.NewRegistry(m.Registry.Version, fns...)
}

// EntryPath returns the absolute path of the script to compile.
func (m *Manifest) EntryPath() string {
	return m.resolve(m.Build.Entry)
}

// OutputPath returns the absolute path of the bytecode file.
func (m *Manifest) OutputPath() string {
	return m.resolve(m.Build.Output)
}

// CachePath returns the compile cache location, or "" when caching is off.
func (m *Manifest) CachePath() string {
	if m.Build.Cache == "" {
		return ""
	}
	return m.resolve(m.Build.Cache)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
