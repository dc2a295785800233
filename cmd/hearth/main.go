package main

import (
	"os"

	"github.com/danielpatrickdp/hearth/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
