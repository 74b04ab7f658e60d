package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"auramesh/internal/config"
	"auramesh/internal/db"
	"auramesh/internal/logging"
	"auramesh/internal/migrate"
)

const appName = "aura-migrate"

var version = "dev"

const usage = `usage: %s <command>
  up      apply pending migrations
  status  list pending migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadIngest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Common, version, appName)

	conn, err := db.Open(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	ctx := context.Background()
	switch os.Args[1] {
	case "up":
		n, err := migrate.Run(ctx, conn, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d migration(s) applied\n", n)
	case "status":
		pending, err := migrate.Pending(ctx, conn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			os.Exit(1)
		}
		if len(pending) == 0 {
			fmt.Println("up to date")
			return
		}
		fmt.Printf("pending: %s\n", strings.Join(pending, ", "))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}
