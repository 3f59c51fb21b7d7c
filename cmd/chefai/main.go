package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chefai/internal/config"
	"chefai/internal/logsink"
)

func main() {
	var opts cliOptions
	var serve bool
	var addr string
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.StringVar(&opts.dataDir, "data", "data", "Directory for the offline recipe and shopping list store")
	flag.StringVar(&opts.remote, "remote", "", "Base URL of a chefai server; recipes are kept there instead of locally")
	flag.StringVar(&opts.token, "token", "", "Session token for -remote (see POST /auth/login)")
	flag.BoolVar(&opts.list, "list", false, "List saved recipes")
	flag.StringVar(&opts.search, "search", "", "Search recipes by title, description or ingredient")
	flag.StringVar(&opts.importFile, "import", "", "Save the recipe(s) in a JSON file")
	flag.StringVar(&opts.remove, "remove", "", "Delete the recipe with this id")
	flag.StringVar(&opts.shop, "shop", "", "Add the ingredients of the recipe with this id to the shopping list")
	flag.BoolVar(&opts.shopping, "shopping", false, "Print the shopping list")
	flag.StringVar(&opts.addItem, "add-item", "", "Add an item to the shopping list")
	flag.StringVar(&opts.check, "check", "", "Toggle the shopping item with this id")
	flag.BoolVar(&opts.clearChecked, "clear-checked", false, "Remove checked items from the shopping list")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		logger, closeLogs, err := logsink.Setup(ctx, os.Stdout, cfg.Logging)
		if err != nil {
			log.Fatalf("failed to set up logging: %v", err)
		}
		slog.SetDefault(logger)
		defer func() { _ = closeLogs(context.Background()) }()

		if err := runServer(cfg, addr); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// the cli keeps stdout for its own output
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logsink.ParseLevel(cfg.Logging.Level)})))
	if !opts.any() {
		showHelp()
		os.Exit(1)
	}
	if err := runCLI(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func showHelp() {
	fmt.Println("chefai - AI recipe keeper")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  chefai -serve [-addr :8080]         run the recipe store and generation server")
	fmt.Println("  chefai [-data dir | -remote url -token t] <command>")
	fmt.Println()
	flag.PrintDefaults()
}
