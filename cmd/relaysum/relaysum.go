package relaysum

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wal-g/tracelog"

	"github.com/wal-g/relaysum/internal/config"
	"github.com/wal-g/relaysum/internal/statistics"
)

const (
	ShortDescription = "Relay digests for streamed and multipart uploads"

	hiddenConfigFlagAnnotation = "relaysum_hidden_config_flag"
)

// These variables are here only to show current version. They are set in makefile during build process
var relaysumVersion = "devel"
var gitRevision = "devel"
var buildDate = "devel"

var profiler config.ProfileStopper

var Cmd = &cobra.Command{
	Use:     "relaysum",
	Short:   ShortDescription,
	Version: strings.Join([]string{relaysumVersion, gitRevision, buildDate}, "\t"),
	PersistentPreRun: func(*cobra.Command, []string) {
		var err error
		profiler, err = config.Profile()
		tracelog.ErrorLogger.FatalOnError(err)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if profiler != nil {
			profiler.Stop()
			profiler = nil
		}
		statistics.PushMetrics()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the Cmd.
func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(config.InitConfig, config.Configure)

	Cmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default is $HOME/.relaysum)")
	Cmd.InitDefaultVersionFlag()
	config.AddConfigFlags(Cmd, hiddenConfigFlagAnnotation)
	setConfigFlagsHidden(Cmd.PersistentFlags(), true)
}

func setConfigFlagsHidden(flags *pflag.FlagSet, hidden bool) {
	flags.VisitAll(func(f *pflag.Flag) {
		if _, ok := f.Annotations[hiddenConfigFlagAnnotation]; ok {
			f.Hidden = hidden
		}
	})
}
