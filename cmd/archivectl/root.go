package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fsarchive/fsa-core/pkg/logging"
	"github.com/fsarchive/fsa-core/pkg/version"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "archivectl",
		Short:   "Write and read FEC-protected, splittable archive volumes",
		Version: version.Version(),
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./archivectl.yaml, $HOME/archivectl.yaml)")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging to stderr")
	root.PersistentFlags().Int64("split-size", 0, "split the archive every N bytes (0 disables splitting)")
	root.PersistentFlags().Int("ecc-level", 0, "FEC parity packets per block")
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("split_size", root.PersistentFlags().Lookup("split-size"))
	_ = viper.BindPFlag("ecc_level", root.PersistentFlags().Lookup("ecc-level"))

	cobra.OnInitialize(initConfig)

	root.AddCommand(newWriteCmd(), newReadCmd())
	return root
}

// initConfig loads defaults, an optional config file, and ARCHIVECTL_*
// environment overrides, mirroring the precedence order (flag > env >
// config file > default) the pack's APFS config loader establishes.
func initConfig() {
	viper.SetDefault("split_size", int64(0))
	viper.SetDefault("ecc_level", 0)
	viper.SetDefault("overwrite_existing", false)
	viper.SetDefault("verbose", false)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("archivectl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ARCHIVECTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "archivectl: reading config: %v\n", err)
		}
	}
}

func newLogger() *logging.Logger {
	verbosity := logging.LEVEL_INFO
	if viper.GetBool("verbose") {
		verbosity = logging.LEVEL_DEBUG
	}
	return logging.NewLogger(logging.NewSimpleLogger(os.Stderr, verbosity, true))
}
