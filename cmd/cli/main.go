package main

import (
	"fmt"
	"os"

	_ "github.com/crucial707/microblog/cmd/cli/migrate"
	"github.com/crucial707/microblog/cmd/cli/root"
	_ "github.com/crucial707/microblog/cmd/cli/social"
	_ "github.com/crucial707/microblog/cmd/cli/users"
)

func main() {
	// Execute the root Cobra command
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
