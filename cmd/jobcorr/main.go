package main

import (
	"fmt"
	"os"

	"jobcorr/src/cli"
)

func runMain(args []string) int {
	defer cli.Sync()
	if err := cli.Execute(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func main() {
	exitCode := runMain(os.Args[1:])
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
