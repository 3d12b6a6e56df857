//go:build !windows && !darwin && !linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serviceCmd)
}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the macwinctl system service",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Service management is only implemented for macOS (launchd), Linux (systemd), and Windows (SCM).")
	},
}
