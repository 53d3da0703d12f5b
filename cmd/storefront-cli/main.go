package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artemoderno/storefront/cmd/storefront-cli/cli"
	"github.com/artemoderno/storefront/internal/app"
	"github.com/artemoderno/storefront/internal/platform/db"
)

const usage = `usage:
  storefront-cli export-orders [-json]
  storefront-cli jobs trigger export|cleanup [-retention 720h]
  storefront-cli jobs stats
  storefront-cli jobs scheduled [-n 10]`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	switch args[0] {
	case "export-orders":
		return exportOrders(ctx, cfg, logger, args[1:])
	case "jobs":
		return jobsCommand(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func exportOrders(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export-orders", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.Postgres("cli"))
	if err != nil {
		return err
	}
	defer pool.Close()

	core := app.NewCore(cfg, pool, nil, nil, logger)
	_, err = cli.RunExport(ctx, core.Exporter, cli.ExportOptions{JSONOutput: *jsonOut, Stdout: os.Stdout})
	return err
}

func jobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", usage)
	}
	jobsCLI := cli.NewJobsCLI(cfg.Asynq())
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return fmt.Errorf("%s", usage)
		}
		fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
		retention := fs.Duration("retention", 30*24*time.Hour, "checkout key retention for cleanup")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		info, err := jobsCLI.Trigger(ctx, args[1], *retention)
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
		return nil
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		return printJSON(stats)
	case "scheduled":
		fs := flag.NewFlagSet("jobs scheduled", flag.ContinueOnError)
		size := fs.Int("n", 10, "page size")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		tasks, err := jobsCLI.ListScheduled(ctx, *size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
		return nil
	default:
		return fmt.Errorf("unknown jobs command %q\n%s", args[0], usage)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
