package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var (
	verbosity    int
	logfile      string
	settingsFile string
)

var rootCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Language server for style and script blocks embedded in HTML",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (HCL or JSON)")
	rootCmd.AddCommand(serveCmd, checkCmd, versionCmd)
}

func configureLogging() {
	if logfile != "" {
		commonlog.Configure(verbosity, &logfile)
		return
	}
	commonlog.Configure(verbosity, nil)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
