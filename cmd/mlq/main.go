package main

import (
	"fmt"
	"os"

	"github.com/Yuwon03/MLQ-Scheduler/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
}
