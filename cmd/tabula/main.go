package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/config"
	"github.com/tabula-io/tabula/internal/db"
	"github.com/tabula-io/tabula/internal/handler"
	"github.com/tabula-io/tabula/internal/job"
	"github.com/tabula-io/tabula/internal/middleware"
	"github.com/tabula-io/tabula/internal/model"
	"github.com/tabula-io/tabula/internal/repo"
	"github.com/tabula-io/tabula/internal/schedule"
	"github.com/tabula-io/tabula/internal/service"
)

func main() {
	var configPath string
	var dryRun bool

	rootCmd := &cobra.Command{
		Use:   "tabula",
		Short: "tabula data explorer server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run tabula server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, database)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	repairCmd := &cobra.Command{
		Use:   "repair-views",
		Short: "strip stale column references from stored saved views",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := setup(configPath)
			if err != nil {
				return err
			}
			return repairViews(cfg, database, dryRun)
		},
	}
	repairCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	repairCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(repairCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// setup is the shared front half of every subcommand: env file, config,
// logger, database with migrations applied.
func setup(configPath string) (*config.Config, *sql.DB, error) {
	_ = godotenv.Load()
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("config", configPath), zap.Int("tables", len(cfg.Tables)))

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, database, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.Int("tables", len(cfg.Tables)),
		zap.Bool("auth", cfg.AuthSecret != ""),
	)

	savedViewRepo := repo.NewSavedViewRepo(database)
	entityRepo := repo.NewEntityRepo(database)

	savedViewService := service.NewSavedViewService(savedViewRepo)
	entityService := service.NewEntityService(entityRepo, cfg.Tables)

	deps := handler.RouterDeps{
		SavedViews:  handler.NewSavedViewHandler(savedViewService),
		Entities:    handler.NewEntityHandler(entityService),
		Tables:      handler.NewTableHandler(entityService),
		AuthSecret:  cfg.AuthSecret,
		WriteWindow: cfg.WriteWindow(),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllow),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEntityPurgeJob(entityService, cfg.Purge.RetentionDays), cfg.Purge.Spec); err != nil {
		return fmt.Errorf("schedule purge job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// repairViews rewrites every stored saved view whose display state still
// references columns the configured tables no longer define. The original
// column set is whatever the view was created against, so this is the one
// place stale references are cleaned up rather than just ignored.
func repairViews(cfg *config.Config, database *sql.DB, dryRun bool) error {
	ctx := context.Background()
	log := logutil.GetLogger(ctx)

	savedViewService := service.NewSavedViewService(repo.NewSavedViewRepo(database))
	views, err := savedViewService.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list saved views: %w", err)
	}

	repaired := 0
	for _, view := range views {
		table, ok := cfg.Table(view.TableName)
		if !ok {
			log.Warn("saved view references an unconfigured table, skipping",
				zap.String("view_id", view.ID), zap.String("table", view.TableName))
			continue
		}
		state := view.ViewState()
		cleaned := state.Sanitize(table)
		if reflect.DeepEqual(state, cleaned) {
			continue
		}
		repaired++
		log.Info("saved view carries stale column references",
			zap.String("view_id", view.ID),
			zap.String("name", view.Name),
			zap.String("table", view.TableName),
			zap.Bool("dry_run", dryRun))
		if dryRun {
			continue
		}
		patch := model.SavedViewPatch{
			Filters:       &cleaned.Filters,
			GroupBy:       &cleaned.GroupBy,
			HiddenColumns: &cleaned.HiddenColumns,
			ColumnOrder:   &cleaned.ColumnOrder,
			ColumnWidths:  &cleaned.ColumnWidths,
			SortConfig:    &cleaned.SortConfig,
		}
		if _, err := savedViewService.Update(ctx, view.ID, patch); err != nil {
			return fmt.Errorf("update view %s: %w", view.ID, err)
		}
	}
	log.Info("repair pass finished",
		zap.Int("views_checked", len(views)),
		zap.Int("views_repaired", repaired),
		zap.Bool("dry_run", dryRun))
	return nil
}
