package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/echoroom/echoroom/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := server.NewConfigFromEnv()
	server.SetConfig(cfg)

	hub := server.NewHub(server.NewRegistry())
	go hub.Run()
	log.Println("Hub started and ready to manage WebSocket connections")

	router := server.NewRouter(hub, time.Now())
	httpServer := server.CreateServer(cfg.Port, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			log.Printf("Hub shutdown error: %v", err)
		}
		if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}
}
