package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func newRootCmd() *cobra.Command {
	var verbose int
	var logFile string

	rootCmd := &cobra.Command{
		Use:          "classdump",
		Short:        "Decode and print JVM class files",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			commonlog.Configure(verbose, path)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newPrintCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
