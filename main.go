package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/convoflow/coordinator/internal/broker"
	"github.com/convoflow/coordinator/internal/config"
	"github.com/convoflow/coordinator/internal/fsm"
	"github.com/convoflow/coordinator/internal/generate"
	"github.com/convoflow/coordinator/internal/store"
	transporthttp "github.com/convoflow/coordinator/internal/transport/http"
	v1 "github.com/convoflow/coordinator/internal/transport/http/v1"
	"github.com/convoflow/coordinator/internal/transport/ws"
	"github.com/convoflow/coordinator/internal/worker"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting coordinator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Workers: %d", cfg.Workers)

	// Initialize store
	var st store.Store
	if cfg.DatabaseURL == "" || cfg.DatabaseURL == "memory" {
		st = store.NewMemoryStore()
	} else {
		sqliteStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		st = sqliteStore
	}
	defer st.Close()

	// Initialize broker and state machine
	br := broker.NewMemoryBroker()
	machine := fsm.New(st, br)

	// Initialize generation backend
	gen := generate.NewGenerator(cfg.GeneratorMode, cfg.GeneratorURL,
		cfg.GeneratorAPIKey, cfg.GeneratorModel, cfg.GenerateTimeout)

	// Start workers
	workers := make([]*worker.Worker, 0, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		w := worker.New(machine, br, gen, worker.Options{
			DequeueTimeout: cfg.DequeueTimeout,
			IdleWait:       cfg.IdleWait,
		})
		w.Start()
		workers = append(workers, w)
	}

	// Initialize HTTP server
	v1Handler := v1.NewHandler(machine, st, br, cfg.StreamPollTimeout)
	wsHandler := ws.NewHandler(st, br, cfg.StreamPollTimeout)
	server := transporthttp.NewServer(v1Handler, wsHandler)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down coordinator...")

	// Stop workers first so no new generation cycles begin; events already
	// published stay in their channels for open relays to drain.
	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Coordinator stopped")
}
