package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobscopeindia/jobscope"
	"github.com/jobscopeindia/jobscope/views"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "seed":
		err = runSeed(os.Args[2:])
	case "version":
		fmt.Printf("jobscope %s\n", jobscope.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := jobscope.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := jobscope.InitTracing(ctx, jobscope.TracingConfig{
		ServiceName:  "jobscope",
		Version:      jobscope.Version,
		Environment:  cfg.Env,
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	app := jobscope.New(cfg, views.Funcs())
	defer app.Close()
	return app.Start(ctx)
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	n := fs.Int("n", 12, "number of posts to generate")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := jobscope.LoadConfig()
	if err != nil {
		return err
	}
	store, err := jobscope.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	posts, err := jobscope.SeedPosts(context.Background(), store, *n, *seed)
	for _, p := range posts {
		fmt.Printf("  created %s\n", p.Link())
	}
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d posts into %s\n", len(posts), cfg.DatabasePath)
	return nil
}

func printUsage() {
	fmt.Println(`jobscope - the Job Scope India blog server

Usage:
  jobscope <command> [arguments]

Commands:
  serve              Start the web server (default)
  seed [-n N]        Insert N generated sample posts
  version            Print the version
  help               Show this help message

Configuration is read from the environment, an optional .env file and an
optional config.yml. ADMIN_PIN and SESSION_SECRET are required.`)
}
