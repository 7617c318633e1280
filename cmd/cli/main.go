package main

import (
	"os"

	"github.com/bookadmin-dev/bookadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
