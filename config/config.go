package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/matcher"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FileNames are the config file names we search for, in order of preference.
//
//nolint:gochecknoglobals
var FileNames = []string{".fmtrc.toml", "fmtrc.toml", ".fmtrc.yaml", ".fmtrc.yml", ".fmtrc.json"}

// Config is the base set of options applied to every file, followed by an ordered list of overrides.
type Config struct {
	Options `yaml:",inline"`

	Overrides []Override `toml:"overrides,omitempty" yaml:"overrides,omitempty" json:"overrides,omitempty"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-" yaml:"-" json:"-"`
	// Digest is a SHA-256 of the raw config file.
	Digest []byte `toml:"-" yaml:"-" json:"-"`
}

// Override applies Options to any file matching Files but none of ExcludeFiles.
type Override struct {
	// Files is a list of glob patterns used to determine whether this Override should be applied against a path.
	Files []string `toml:"files,omitempty" yaml:"files,omitempty" json:"files,omitempty"`
	// ExcludeFiles is an optional list of glob patterns used to exclude certain files from this Override.
	ExcludeFiles []string `toml:"excludeFiles,omitempty" yaml:"excludeFiles,omitempty" json:"excludeFiles,omitempty"`
	// Options are merged over the base options for matching files.
	Options Options `toml:"options,omitempty" yaml:"options,omitempty" json:"options,omitempty"`
}

// FormatFromPath determines the encoding of a config file from its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %s", path)
	}
}

// Load reads the config file at path, validates it and fills any base option the file leaves unset with its default.
func Load(path string) (*Config, error) {
	l := log.WithPrefix("config")

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, withFile(err, path)
	}

	if err = cfg.Validate(); err != nil {
		return nil, withFile(err, path)
	}

	digest := sha256.Sum256(data)

	cfg.Path = path
	cfg.Digest = digest[:]

	// fill in defaults underneath whatever the file specified
	base := Defaults()
	base.Merge(cfg.Options)
	cfg.Options = base

	l.Debugf("loaded %s with %d override(s)", path, len(cfg.Overrides))

	return cfg, nil
}

// Decode reads a config in the given format from r. Unknown option names are rejected.
// No validation of option values is performed and no defaults are applied.
func Decode(r io.Reader, format Format) (*Config, error) {
	cfg := &Config{}

	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(cfg)
		if err != nil {
			return nil, &InvalidConfigError{Err: err}
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, invalid(undecoded[0].String(), nil, "unknown option")
		}

	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)

		if err := dec.Decode(cfg); errors.Is(err, io.EOF) {
			return cfg, nil
		} else if err != nil {
			return nil, &InvalidConfigError{Err: err}
		}

		// a config is a single document
		var rest yaml.Node
		if err := dec.Decode(&rest); !errors.Is(err, io.EOF) {
			return nil, trailing(err)
		}

	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()

		if err := dec.Decode(cfg); errors.Is(err, io.EOF) {
			return cfg, nil
		} else if err != nil {
			return nil, &InvalidConfigError{Err: err}
		}

		// a config is a single value
		var rest json.RawMessage
		if err := dec.Decode(&rest); !errors.Is(err, io.EOF) {
			return nil, trailing(err)
		}

	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	return cfg, nil
}

func trailing(err error) error {
	if err == nil {
		err = errors.New("unexpected content after the first document")
	}

	return &InvalidConfigError{Err: err}
}

// Validate checks every option and compiles every override pattern.
func (c *Config) Validate() error {
	if err := c.Options.validate("", c.Plugins); err != nil {
		return err
	}

	for idx, override := range c.Overrides {
		prefix := fmt.Sprintf("overrides[%d].", idx)

		plugins := c.Plugins
		if override.Options.Plugins != nil {
			plugins = override.Options.Plugins
		}

		if err := override.Options.validate(prefix+"options.", plugins); err != nil {
			return err
		}

		if _, err := matcher.CompileGlobs(override.Files); err != nil {
			return &InvalidConfigError{Field: prefix + "files", Err: err}
		}

		if _, err := matcher.CompileGlobs(override.ExcludeFiles); err != nil {
			return &InvalidConfigError{Field: prefix + "excludeFiles", Err: err}
		}
	}

	return nil
}

// Encode writes c to w in the given format.
func (c *Config) Encode(w io.Writer, format Format) error {
	return EncodeValue(w, format, c)
}

// EncodeValue writes v to w using the given format.
func EncodeValue(w io.Writer, format Format, v any) error {
	var err error

	switch format {
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err = enc.Encode(v); err == nil {
			err = enc.Close()
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if err != nil {
		return fmt.Errorf("failed to encode as %s: %w", format, err)
	}

	return nil
}
