package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	accountcmd "github.com/HossamJa/devops-capstone-project/internal/command"
	"github.com/HossamJa/devops-capstone-project/internal/handler"
	"github.com/HossamJa/devops-capstone-project/internal/migrations"
	accountqry "github.com/HossamJa/devops-capstone-project/internal/query"
	"github.com/HossamJa/devops-capstone-project/internal/repository"
	"github.com/HossamJa/devops-capstone-project/shared/events"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.GinMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Database connection (write store)
			db, err := openDatabase(cfg.DatabaseURI)
			if err != nil {
				return err
			}
			defer db.Close()

			writeRepo := repository.NewAccountWriteRepository(db)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = writeRepo.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}

			if cfg.AutoMigrate {
				if err := migrations.Up(ctx, db); err != nil {
					return err
				}
			}

			// Redis connection (read cache + event stream), optional
			var redisClient *goredis.Client
			rc, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			if rc != nil {
				defer rc.Close()
				redisClient = rc.Client
			} else {
				log.Warn().Msg("REDIS_ADDR not set; account cache and events disabled")
			}

			readRepo := repository.NewAccountReadRepository(writeRepo, redisClient)
			publisher := events.NewPublisher(redisClient)

			commandSvc := accountcmd.NewAccountCommandService(writeRepo, readRepo, publisher)
			querySvc := accountqry.NewAccountQueryService(readRepo)
			router := handler.NewRouter(handler.NewAccountHandler(commandSvc, querySvc))

			server := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return runServer(ctx, server)
		},
	}
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Account service starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped gracefully")
	return nil
}
