// fvm runs, inspects and debugs bytecode for the fvm execution engine.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/config"
	"github.com/colorfulnotion/fvm/log"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// node carries the settings resolved by the root command.
type node struct {
	configID string
	logLevel string
	debug    string
	jsonLog  bool
	dataDir  string

	cfg *config.Config
}

func (n *node) load(cmd *cobra.Command) error {
	cfg, err := config.Load(n.configID)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = n.logLevel
	}
	if flags.Changed("debug") {
		cfg.DebugModules = n.debug
	}
	if flags.Changed("json-log") {
		cfg.LogJSON = n.jsonLog
	}
	if flags.Changed("db") {
		cfg.DataDir = n.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Apply(); err != nil {
		return err
	}
	n.cfg = cfg
	log.Debug(log.CLIMonitoring, "config loaded", "id", n.configID, "dataDir", cfg.DataDir)
	return nil
}

func (n *node) openStore() (*storage.Store, error) {
	return storage.Open(n.cfg.DataDir, n.cfg.WitnessCacheSize)
}

func newRootCmd() *cobra.Command {
	n := &node{}
	rootCmd := &cobra.Command{
		Use:           "fvm",
		Short:         "fvm bytecode engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return n.load(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&n.configID, "config", "", "config profile (dev, bench) or YAML file")
	pf.StringVar(&n.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error, crit")
	pf.StringVar(&n.debug, "debug", "", "comma separated debug modules, or all")
	pf.BoolVar(&n.jsonLog, "json-log", false, "log as JSON")
	pf.StringVar(&n.dataDir, "db", "", "LevelDB directory; empty keeps state in memory")

	rootCmd.AddCommand(
		newRunCmd(n),
		newDisasmCmd(),
		newGasCmd(),
		newConsoleCmd(n),
		newStateTestCmd(n),
		newLogsCmd(n),
		newStorageCmd(n),
		newCodeCmd(n),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fvm %s (commit %s, built %s)\n", Version, common.GetCommitHash(), BuildTime)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, common.Colorize("Error: "+err.Error(), common.ColorRed, true))
		os.Exit(1)
	}
}
