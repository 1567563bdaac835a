package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/HossamJa/devops-capstone-project/internal/config"
	"github.com/HossamJa/devops-capstone-project/internal/logger"
	sharedredis "github.com/HossamJa/devops-capstone-project/shared/redis"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

var envFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "accounts",
		Short:         "Account REST API service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("accounts %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newWatchCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	return cfg, nil
}

// openDatabase does not dial; the first query or Ping does.
func openDatabase(uri string) (*sql.DB, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, nil
}

// openRedis returns (nil, nil) when Redis is not configured.
func openRedis(ctx context.Context, cfg *config.Config) (*sharedredis.Client, error) {
	if !cfg.RedisEnabled() {
		return nil, nil
	}
	return sharedredis.NewClient(ctx, sharedredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
