package main

import (
	"flag"

	"github.com/mark3labs/mcp-go/server"
	"github.com/peterkuimelis/netrun/internal/config"
	netrunmcp "github.com/peterkuimelis/netrun/internal/mcp"
	netrunnet "github.com/peterkuimelis/netrun/internal/net"
	"github.com/peterkuimelis/netrun/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	db := flag.String("db", cfg.DBPath, "path to the run database")
	seed := flag.Int64("seed", cfg.Seed, "RNG seed (0 for random)")
	flag.Parse()
	cfg.Seed = *seed

	// stdout carries the protocol, so diagnostics go to stderr only.
	diag, err := cfg.Logger()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer diag.Sync()

	cat, err := cfg.Catalog()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	st, err := store.Open(*db)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	defer st.Close()

	tools := netrunmcp.NewServer(&netrunnet.Runner{
		Catalog: cat,
		Store:   st,
		Rules:   cfg.Rules(),
		Seed:    cfg.Seed,
		Diag:    diag,
	})

	s := server.NewMCPServer("netrun", "1.0.0")
	tools.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		st.Close()
		config.Exitf("Error: %v", err)
	}
}
