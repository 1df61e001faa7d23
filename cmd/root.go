package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/build"
	_init "github.com/numtide/fmtrc/cmd/init"
	"github.com/numtide/fmtrc/cmd/resolve"
	"github.com/numtide/fmtrc/config"
	"github.com/numtide/fmtrc/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRoot() (*cobra.Command, *stats.Stats) {
	var fmtrcInit bool

	// create a viper instance for reading in config
	v := config.NewViper()

	// create a new stats instance
	statz := stats.New()

	// create out root command
	cmd := &cobra.Command{
		Use:     build.Name + " <paths...>",
		Short:   "Resolves the effective formatter options for every file in a tree",
		Version: build.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(v, &statz, cmd, args)
		},
	}

	// update version template
	cmd.SetVersionTemplate(build.Name + " {{.Version}}\n")

	fs := cmd.Flags()

	// add our config flags to the command's flag set
	config.SetFlags(fs)

	// exiting early makes no sense alongside watching
	cmd.MarkFlagsMutuallyExclusive("watch", "check", "find-config-path")

	// add a special flag which doesn't have a corresponding entry in Settings
	fs.BoolVarP(
		&fmtrcInit, "init", "i", false,
		"Create a .fmtrc.toml file in the current directory.",
	)

	// bind our command's flags to viper
	if err := v.BindPFlags(fs); err != nil {
		cobra.CheckErr(fmt.Errorf("failed to bind global config to viper: %w", err))
	}

	return cmd, &statz
}

func runE(v *viper.Viper, statz *stats.Stats, cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	settings, err := config.SettingsFromViper(v)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	// change working directory if required
	if err = os.Chdir(settings.WorkingDir); err != nil {
		return fmt.Errorf("failed to change working directory: %w", err)
	}

	// configure logging
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)

	if settings.Quiet {
		// if quiet, we only log errors
		log.SetLevel(log.ErrorLevel)
	} else {
		// otherwise, the verbose flag controls the log level
		switch settings.Verbose {
		case 0:
			log.SetLevel(log.WarnLevel)
		case 1:
			log.SetLevel(log.InfoLevel)
		default:
			log.SetLevel(log.DebugLevel)
		}
	}

	// check if we are running the init command
	if init, err := flags.GetBool("init"); err != nil {
		return fmt.Errorf("failed to read init flag: %w", err)
	} else if init {
		if err = _init.Run(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to run init command: %w", err)
		}

		return nil
	}

	return resolve.Run(settings, statz, cmd, args) //nolint:wrapcheck
}
