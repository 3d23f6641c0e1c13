// File: cmd/chatroom/main.go
// Package main
// chatroom: single-process reactor chat server and line client.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "chatroom",
	Short:         "Event-driven TCP chat room over epoll/kqueue",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "timestamps with microseconds and source lines in logs")
	rootCmd.AddCommand(serveCmd, clientCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
