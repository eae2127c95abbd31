package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterkuimelis/netrun/internal/config"
	"github.com/peterkuimelis/netrun/internal/store"
	"github.com/peterkuimelis/netrun/internal/web"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	port := flag.String("port", cfg.WebPort, "HTTP port to listen on")
	gameAddr := flag.String("game", "localhost:"+cfg.Port, "default game server address for browser sessions")
	db := flag.String("db", cfg.DBPath, "path to the run database")
	flag.Parse()

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

	srv, err := web.NewServer(web.Options{
		Catalog:  cat,
		Store:    st,
		GameAddr: *gameAddr,
		Diag:     diag,
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diag.Info("netrun web UI listening", zap.String("url", "http://localhost:"+*port))
	if err := srv.ListenAndServe(ctx, ":"+*port); err != nil {
		st.Close()
		config.Exitf("Error: %v", err)
	}
}
