package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/peterkuimelis/netrun/internal/catalog"
	"github.com/peterkuimelis/netrun/internal/config"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	switch cmd {
	case "play":
		runPlay(ctx, cfg, os.Args[2:])
	case "serve":
		runServe(ctx, cfg, os.Args[2:])
	case "join":
		runJoin(ctx, cfg, os.Args[2:])
	case "runs":
		runRuns(ctx, cfg, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  netrun play  [--build B] [--name N] [--run ID] [--seed S] [--db FILE]")
	fmt.Println("  netrun serve [--port P] [--seed S] [--db FILE] [--events]")
	fmt.Println("  netrun join  [--addr ADDR] [--build B] [--name N] [--run ID]")
	fmt.Println("  netrun runs  [--db FILE] [--run ID] [--limit N]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  play    Play a run in this terminal")
	fmt.Println("  serve   Host runs for remote terminals and the web UI")
	fmt.Println("  join    Connect to a server and play a run")
	fmt.Println("  runs    List stored runs, or one run's combat history")
	fmt.Println()
	fmt.Println("Defaults come from NETRUN_* environment variables.")
}

// stack is what the run-hosting commands share.
type stack struct {
	diag    *zap.Logger
	catalog *catalog.Catalog
	store   *store.Store
}

func openStack(cfg config.Config) (*stack, error) {
	diag, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &stack{diag: diag, catalog: cat, store: st}, nil
}

func (s *stack) close() {
	_ = s.store.Close()
	_ = s.diag.Sync()
}

func (s *stack) runner(cfg config.Config) *netrunnet.Runner {
	return &netrunnet.Runner{
		Catalog: s.catalog,
		Store:   s.store,
		Rules:   cfg.Rules(),
		Seed:    cfg.Seed,
		Diag:    s.diag,
	}
}

func runPlay(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	build := fs.String("build", cfg.Build, "player build (see the builds catalog)")
	name := fs.String("name", "Runner", "player name")
	runID := fs.String("run", "", "resume a stored run by id")
	seed := fs.Int64("seed", cfg.Seed, "RNG seed (0 for random)")
	db := fs.String("db", cfg.DBPath, "path to the run database")
	logLevel := fs.String("log-level", "warn", "diagnostic log level")
	fs.Parse(args)

	cfg.Seed = *seed
	cfg.DBPath = *db
	cfg.LogLevel = *logLevel

	st, err := openStack(cfg)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer st.close()

	join := netrunnet.ClientMessage{Name: *name, Build: *build, RunID: *runID}
	if err := netrunnet.PlayLocal(ctx, st.runner(cfg), join, os.Stdin, os.Stdout); err != nil {
		st.close()
		config.Exitf("Error: %v", err)
	}
}

func runServe(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.Port, "TCP port to listen on")
	seed := fs.Int64("seed", cfg.Seed, "RNG seed (0 for random)")
	db := fs.String("db", cfg.DBPath, "path to the run database")
	events := fs.Bool("events", false, "print every combat event to stdout")
	fs.Parse(args)

	cfg.Seed = *seed
	cfg.DBPath = *db

	st, err := openStack(cfg)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer st.close()

	runner := st.runner(cfg)
	if *events {
		runner.Events = os.Stdout
	}
	srv := &netrunnet.Server{
		Runner: runner,
		Port:   *port,
		Diag:   st.diag,
	}
	if err := srv.Run(ctx); err != nil {
		st.close()
		config.Exitf("Error: %v", err)
	}
}

func runJoin(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	addr := fs.String("addr", "localhost:"+cfg.Port, "server address to connect to")
	build := fs.String("build", cfg.Build, "player build")
	name := fs.String("name", "Runner", "player name")
	runID := fs.String("run", "", "resume a stored run by id")
	fs.Parse(args)

	join := netrunnet.ClientMessage{Name: *name, Build: *build, RunID: *runID}
	if err := netrunnet.Connect(ctx, *addr, join); err != nil {
		config.Exitf("Error: %v", err)
	}
}

func runRuns(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	db := fs.String("db", cfg.DBPath, "path to the run database")
	runID := fs.String("run", "", "show one run's combat history")
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	fs.Parse(args)

	st, err := store.Open(*db)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer st.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if *runID != "" {
		run, err := st.GetRun(ctx, *runID)
		if err != nil {
			st.Close()
			config.Exitf("Error: %v", err)
		}
		history, err := st.ListCombats(ctx, *runID)
		if err != nil {
			st.Close()
			config.Exitf("Error: %v", err)
		}
		fmt.Fprintf(w, "Run %s: %s (%s), %s, HP %d/%d, %d credits\n\n",
			run.ID, run.PlayerName, run.Build, run.Status, run.Player.Health, run.Player.MaxHealth, run.Player.Credits)
		fmt.Fprintln(w, "STAGE\tENCOUNTER\tRESULT\tTURNS\tCREDITS\tREWARD")
		for _, rec := range history {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
				rec.Encounter+1, rec.EncounterID, rec.Result, rec.Turns, rec.Credits, rec.Reward)
		}
		return
	}

	runs, err := st.ListRuns(ctx, *limit)
	if err != nil {
		st.Close()
		config.Exitf("Error: %v", err)
	}
	fmt.Fprintln(w, "ID\tPLAYER\tBUILD\tSTAGE\tSTATUS\tHP\tUPDATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d/%d\t%s\n",
			run.ID, run.PlayerName, run.Build, run.Encounter+1, run.Status,
			run.Player.Health, run.Player.MaxHealth, run.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}
