package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/duihelp/leadgen/internal/config"
	"github.com/duihelp/leadgen/internal/observability/logging"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()
	logging.Install("leadsctl", config.Load().LogLevel)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
