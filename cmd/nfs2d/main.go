// Command nfs2d runs the NFSv2 server: the MOUNT, NFS and NLM/KLM
// listeners wired to a mount table of pluggable backend filesystems.
package main

import (
	"fmt"
	"os"

	"github.com/brinefs/nfs2d/cmd/nfs2d/commands"
)

var version = "dev"

func main() {
	commands.Version = version
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
