// Command forge drives an AI-assisted, test-first git workflow:
// branch, sync, generate tests for your changes, run them, commit, push.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
