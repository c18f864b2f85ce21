package main

import (
	"os"

	"github.com/shophub/supportflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
