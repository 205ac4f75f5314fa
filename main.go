// ABOUTME: Entry point for the flightdesk CLI
// ABOUTME: Terminal client for searching, booking, and managing flights

package main

import (
	"fmt"
	"os"

	"github.com/flightdesk/flightdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
