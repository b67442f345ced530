package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mklatt/chatwire/cmd/ping"
	"github.com/mklatt/chatwire/cmd/util"
	"github.com/mklatt/chatwire/cmd/watch"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "chatwire",
		Short: "session client for the chatwire messaging protocol",
		Long: fmt.Sprintf(`chatwire (v%s)

A stateful client for an encrypted, binary-framed messaging protocol
spoken over a single persistent websocket connection.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of chatwire",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chatwire v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(ping.PingCmd)
	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "codec"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("message tree codec to use (json, binary)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
