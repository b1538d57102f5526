// Command recall indexes local documents and answers questions about them.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/recall-cli/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(wire)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
