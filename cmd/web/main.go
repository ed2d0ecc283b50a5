package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sosajseba/dirty-minded-socket/config"
	"github.com/sosajseba/dirty-minded-socket/engine"
	"github.com/sosajseba/dirty-minded-socket/server"
	"github.com/sosajseba/dirty-minded-socket/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	rooms, err := store.OpenBolt(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer rooms.Close()

	lobby := engine.NewLobby(rooms, engine.Opts{
		Capacity: cfg.MaxPlayersPerRoom,
		HandSize: cfg.HandSize,
	})

	srv := server.NewServer(lobby, strings.Split(cfg.CORSOrigins, ","))
	lobby.SetBroadcaster(srv)

	srv.Addr = fmt.Sprintf(":%d", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on port %d...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
