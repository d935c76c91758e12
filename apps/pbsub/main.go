package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/quatton/pbsub/apps/pbsub/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "pbsub crashed: %v\n", r)
			if os.Getenv("PBSUB_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
