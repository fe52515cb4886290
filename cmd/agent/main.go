package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valmatch-sync/internal/agent/controller"
	"github.com/valmatch-sync/internal/agent/identity"
	"github.com/valmatch-sync/internal/agent/matchcache"
	"github.com/valmatch-sync/internal/agent/notify"
	"github.com/valmatch-sync/internal/agent/popup"
	"github.com/valmatch-sync/internal/agent/scheduler"
	"github.com/valmatch-sync/internal/agent/storeclient"
	"github.com/valmatch-sync/internal/agent/ui"
	"github.com/valmatch-sync/internal/config"
	"github.com/valmatch-sync/internal/infrastructure/sns"
	"github.com/valmatch-sync/internal/upstream"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	ids, err := identity.NewStore(cfg.AgentDataDir)
	if err != nil {
		slog.Error("init identity store", "err", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		slog.Warn("unknown display timezone, using UTC", "tz", cfg.DisplayTimezone)
		loc = time.UTC
	}

	store := storeclient.New(cfg.SyncAPIURL, cfg.StoreTimeout)
	cache := matchcache.New(upstream.NewClient(cfg.UpstreamURL))

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.AlertTopicARN != "" {
		if pub, err := sns.NewPublisher(cfg); err == nil {
			notifier = notify.NewSNSNotifier(pub)
		} else {
			slog.Warn("SNS publisher not available, falling back to log alerts", "err", err)
		}
	}

	// The scheduler callback and the controller reference each other;
	// the closure resolves the cycle.
	var ctrl *controller.Controller
	sched := scheduler.New(func(name string) { ctrl.HandleTrigger(name) })
	ctrl = controller.New(controller.Deps{
		Identity:   ids,
		Store:      store,
		Scheduler:  sched,
		Notifier:   notifier,
		Deliveries: notify.NewDeliveryLog(50),
		DisplayLoc: loc,
		Refresh:    cache.Refresh,
	})

	adapter := popup.NewAdapter(ctrl, store, ids, cache)

	ctx := context.Background()
	cache.Refresh(ctx)
	if n, err := ctrl.CleanupExpired(ctx); err != nil {
		slog.Error("startup cleanup", "err", err)
	} else if n > 0 {
		slog.Info("startup cleanup removed expired reminders", "count", n)
	}

	sched.Every(controller.TriggerUpdateData, cfg.RefreshPeriod)
	sched.Every(controller.TriggerResync, cfg.ResyncPeriod)

	uiSrv := &http.Server{
		Addr:    "127.0.0.1:" + cfg.AgentPort,
		Handler: ui.NewServer(adapter, cache).Router(),
	}
	go func() {
		if err := uiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("popup api server", "err", err)
			os.Exit(1)
		}
	}()

	slog.Info("agent running",
		"popup_api", uiSrv.Addr,
		"sync_api", cfg.SyncAPIURL,
		"refresh", cfg.RefreshPeriod,
		"resync", cfg.ResyncPeriod,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("agent stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = uiSrv.Shutdown(shutdownCtx)
	sched.Stop()
}
