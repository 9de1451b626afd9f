package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/planetxonline/server/pkg/api"
	"github.com/planetxonline/server/pkg/log"
	"github.com/planetxonline/server/pkg/notifier"
	"github.com/planetxonline/server/pkg/session"
	"github.com/planetxonline/server/pkg/store"
	"github.com/planetxonline/server/pkg/version"
)

func main() {
	apiPort := flag.Int("api-port", 8080, "API port to listen on")
	driver := flag.String("driver", store.DriverPostgres, "Database driver (pgx or sqlite3)")
	migrationsDir := flag.String("migrations", "", "Migrations directory to apply on startup")
	logLevel := flag.String("log-level", "info", "Log level")
	certFile := flag.String("cert-file", "", "TLS certificate file")
	keyFile := flag.String("key-file", "", "TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		panic("DATABASE_URL environment variable must be set")
	}

	st, err := store.Open(ctx, *driver, connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to open store: %v", err))
	}
	defer st.Close()

	if *migrationsDir != "" {
		if err := st.ApplyMigrations(ctx, *migrationsDir); err != nil {
			panic(fmt.Sprintf("Failed to apply migrations: %v", err))
		}
		log.Info("Applied migrations from %s", *migrationsDir)
	}

	hub := notifier.NewHub()
	manager := session.NewManager(session.NewManagerOptions{
		Store:    st,
		Notifier: hub,
	})
	hub.SetConnectionHandler(func(ctx context.Context, playerID int64, connected bool) {
		if err := manager.SetPlayerConnected(ctx, nil, playerID, connected); err != nil {
			log.Error("Failed to set player %d connected=%t: %v", playerID, connected, err)
		}
	})

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:    *apiPort,
		TLS:     tlsConfig,
		Manager: manager,
		Hub:     hub,
	})
	go apiServer.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
}
