// Command toonvaultd runs the episode ingestion daemon in the foreground.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"toonvault/internal/config"
	"toonvault/internal/daemonrun"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	levelFlag := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *levelFlag})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
