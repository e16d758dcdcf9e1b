package main

import (
	"fmt"
	"os"

	"github.com/tomvoet/imgconv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgconv:", err)
		os.Exit(1)
	}
}
