package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings controls a run of fmtrc itself, as opposed to Config which is consumed by the formatter.
type Settings struct {
	CheckOnly      bool   `mapstructure:"check"`
	ClearCache     bool   `mapstructure:"clear-cache"`
	ConfigFile     string `mapstructure:"config-file"`
	FindConfigPath bool   `mapstructure:"find-config-path"`
	NoCache        bool   `mapstructure:"no-cache"`
	Output         string `mapstructure:"output"`
	Quiet          bool   `mapstructure:"quiet"`
	TreeRoot       string `mapstructure:"tree-root"`
	Verbose        uint8  `mapstructure:"verbose"`
	Walk           string `mapstructure:"walk"`
	Watch          bool   `mapstructure:"watch"`
	WorkingDir     string `mapstructure:"working-dir"`
}

// SetFlags appends our flags to the provided flag set.
// We have a flag matching every entry in Settings, taking care to ensure the name matches the field name defined in
// the mapstructure tag.
func SetFlags(fs *pflag.FlagSet) {
	fs.Bool(
		"check", false,
		"Validate the config file and exit. (env $FMTRC_CHECK)",
	)
	fs.BoolP(
		"clear-cache", "c", false,
		"Reset the resolution cache before running. (env $FMTRC_CLEAR_CACHE)",
	)
	fs.String(
		"config-file", "",
		"Load the config file from the given path (defaults to searching upwards for "+
			strings.Join(FileNames, ", ")+"). (env $FMTRC_CONFIG_FILE)",
	)
	fs.Bool(
		"find-config-path", false,
		"Print the path of the config file which would be used and exit.",
	)
	fs.Bool(
		"no-cache", false,
		"Ignore the resolution cache entirely. (env $FMTRC_NO_CACHE)",
	)
	fs.StringP(
		"output", "o", "json",
		"The encoding used when printing effective options. Possible values are <json|yaml|toml>. "+
			"(env $FMTRC_OUTPUT)",
	)
	fs.BoolP(
		"quiet", "q", false,
		"Only log errors. (env $FMTRC_QUIET)",
	)
	fs.String(
		"tree-root", "",
		"The directory paths are resolved against (defaults to the directory containing the config file). "+
			"(env $FMTRC_TREE_ROOT)",
	)
	fs.CountP(
		"verbose", "v",
		"Set the verbosity of logs e.g. -vv. (env $FMTRC_VERBOSE)",
	)
	fs.String(
		"walk", "auto",
		"The method used to traverse the files within the tree root. Currently supports "+
			"<auto|git|filesystem>. (env $FMTRC_WALK)",
	)
	fs.Bool(
		"watch", false,
		"Keep running and resolve again whenever the config file changes. (env $FMTRC_WATCH)",
	)
	fs.StringP(
		"working-dir", "C", ".",
		"Run as if fmtrc was started in the specified working directory instead of the current working "+
			"directory. (env $FMTRC_WORKING_DIR)",
	)
}

// NewViper creates a Viper instance pre-configured with the following options:
// * automatic env enabled
// * `FMTRC_` env prefix for environment variables
// * replacement of `-` and `.` with `_` when mapping flags to env e.g. `no-cache` => `FMTRC_NO_CACHE`.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("fmtrc")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	return v
}

// SettingsFromViper takes a viper instance and produces a Settings instance.
func SettingsFromViper(v *viper.Viper) (*Settings, error) {
	var err error

	s := &Settings{}

	if err = v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	// resolve the working directory to an absolute path
	s.WorkingDir, err = filepath.Abs(s.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for working directory: %w", err)
	}

	switch Format(s.Output) {
	case FormatJSON, FormatYAML, FormatTOML:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", s.Output)
	}

	return s, nil
}
