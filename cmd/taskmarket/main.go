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

	"taskmarket/internal/config"
	"taskmarket/internal/notify"
	"taskmarket/internal/payment"
	"taskmarket/internal/repository"
	"taskmarket/internal/server"
	"taskmarket/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	bidRepo := repository.NewBidRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	registry := notify.NewRegistry()

	var bridge *notify.TelegramBridge
	if cfg.TelegramToken != "" {
		bridge, err = notify.NewTelegramBridge(cfg.TelegramToken, userRepo)
		if err != nil {
			log.Fatalf("telegram bridge: %v", err)
		}
	}

	dispatcher := notify.NewDispatcher(messageRepo, registry, bridge)
	provider := payment.NewInMemoryProvider()

	bidSvc := service.NewBidService(taskRepo, bidRepo, userRepo, dispatcher, provider, cfg.OwnerAcceptEcho)
	taskSvc := service.NewTaskService(taskRepo)
	reconciler := service.NewPaymentReconciler(bidRepo, provider, bidSvc)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.HeartbeatInterval, func() {
		if removed := registry.Sweep(); removed > 0 {
			log.Printf("[info] swept %d dead connections", removed)
		}
	}); err != nil {
		log.Fatalf("schedule heartbeat: %v", err)
	}
	if _, err := scheduler.ScheduleInterval(cfg.ReconcileInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := reconciler.Reconcile(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reconcile: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule reconcile: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.NewServer(bidSvc, taskSvc, userRepo, messageRepo, registry)
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Taskmarket server listening on %s", cfg.ListenAddr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
