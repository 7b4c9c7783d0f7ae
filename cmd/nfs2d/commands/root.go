// Package commands implements the nfs2d CLI's cobra command tree.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "nfs2d",
	Short: "An extensible NFSv2 server",
	Long: `nfs2d serves NFSv2 (RFC 1094) over pluggable backend filesystems.

Mountpoints and their backends are declared in a configuration file; see
--config. Use "nfs2d start" to boot the MOUNT, NFS and NLM/KLM listeners.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/nfs2d/config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
