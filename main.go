package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"internhub/config"
	"internhub/models"
	"internhub/routes"
	"internhub/utils"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg)
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.Application{},
		&models.Attendance{},
		&models.AttendanceBreak{},
		&models.Permission{},
		&models.Project{},
		&models.ProjectMember{},
		&models.UploadedFile{},
	)

	utils.StartOrphanSweeper(db, cfg.UploadSweepEvery, cfg.UploadOrphanTTL)

	router, err := routes.SetupRouter(db)
	if err != nil {
		utils.Logger.Fatal("router setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("forced shutdown", zap.Error(err))
	}
	utils.Logger.Info("server stopped")
}
