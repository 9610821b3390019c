package main

import (
	"os"

	"github.com/Dicklesworthstone/loginchallenge/cmd/loginchallenge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
