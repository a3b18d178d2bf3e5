package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"shipper/pkg/api"
	"shipper/pkg/config"
	"shipper/pkg/store"
	"shipper/pkg/validation"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the label form HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.EasyPostAPIKey == "" {
		log.Println("EASYPOST_API_KEY is not set, label requests will fail")
	}

	schema := validation.New(validation.ParseMode(cfg.ValidationMode))
	log.Printf("Validating forms with the %s rules", schema.Mode())

	sessions, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	handlers := api.NewHandlers(
		store.NewManager(sessions, schema),
		newLabelService(cfg, prometheus.DefaultRegisterer),
		schema,
	)

	gin.SetMode(cfg.GinMode)
	router := api.NewRouter(handlers, api.RouterOptions{
		Metrics:          promhttp.Handler(),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case sig := <-shutdown:
		log.Printf("Start shutdown... Signal: %v", sig)

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown did not complete in %v: %v", shutdownTimeout, err)
			if err := srv.Close(); err != nil {
				log.Printf("Error killing server: %v", err)
			}
		}
		log.Println("Server stopped gracefully")
		return nil
	}
}

// newSessionStore uses Redis when REDIS_ADDR is set and an in-memory store
// otherwise
func newSessionStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.RedisAddr == "" {
		memory := store.NewMemoryStore(cfg.SessionTTL)
		memory.StartSweeper(ctx, time.Minute)
		log.Printf("Using in-memory sessions (ttl %v)", cfg.SessionTTL)
		return memory, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	log.Printf("Using Redis sessions at %s (ttl %v)", cfg.RedisAddr, cfg.SessionTTL)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	return store.NewRedisStore(client, store.WithTTL(cfg.SessionTTL)), closeFn, nil
}
