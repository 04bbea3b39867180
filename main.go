package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("PONG_ADDR", ":8080"), "HTTP listen address")
	dbPath := flag.String("db", envOr("PONG_DB", "pong.db"), "SQLite database path")
	clientDir := flag.String("client", envOr("PONG_CLIENT_DIR", ""), "Path to static client directory (optional)")
	flag.Parse()

	db, err := OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	auth := NewAuth(db, os.Getenv("PONG_JWT_SECRET"))
	events := NewEventLog(db)
	defer events.Stop()

	hub := NewHub(db, auth, events)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		if *clientDir != "" {
			log.Printf("Serving client files from %s", *clientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	server.Close()
}
