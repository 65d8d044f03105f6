// Command codetutor indexes study notes and answers questions about them.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/codetutor/internal/adapters/driving/cli"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version string

func main() {
	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("load .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	os.Exit(cli.Execute())
}
