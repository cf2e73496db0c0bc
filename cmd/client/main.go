package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/entsync/internal/client/cli"
	"github.com/iudanet/entsync/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "entsync-client.db", "Path to local database")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	stdio := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	app, err := cli.NewApp(ctx, *serverURL, *dbPath, logger, stdio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close client", "error", err)
		}
	}()

	command := args[0]
	rest := args[1:]

	var cmdErr error
	switch command {
	case "register":
		cmdErr = app.Register(ctx)
	case "login":
		cmdErr = app.Login(ctx)
	case "logout":
		cmdErr = app.Logout(ctx)
	case "status":
		cmdErr = app.Status(ctx)
	case "add":
		cmdErr = app.Add(ctx, rest)
	case "list":
		cmdErr = app.List(ctx, rest)
	case "get":
		cmdErr = app.Get(ctx, rest)
	case "delete":
		cmdErr = app.Delete(ctx, rest)
	case "resolve":
		cmdErr = app.Resolve(ctx, rest)
	case "pending":
		cmdErr = app.Pending(ctx)
	case "push":
		cmdErr = app.Push(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.PrintUsage(stdio)
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("entsync client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
