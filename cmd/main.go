package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/realstay2025-maker/pgfinder-sub001/internal/app"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/controllers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	fluentHook, err := utils.AttachFluent(cfg.FluentHost, cfg.FluentPort, cfg.AppName)
	if err != nil {
		utils.Logger.WithError(err).Warn("Fluent log shipping disabled")
	} else if fluentHook != nil {
		defer fluentHook.Close()
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize occupancy-service:", err)
	}
	defer application.Close()

	notifier, closeNotifier := app.NewNotifier(cfg)
	defer closeNotifier()
	dispatcher := services.NewDispatcher(notifier)
	utils.Logger.Infof("Notification channels enabled: %d", notifier.Len())

	guard := services.NewOwnershipGuard(application.Store.Repos().Properties, cfg.OwnershipCacheTTL)
	defer guard.Stop()

	occupancyService := services.NewOccupancyService(cfg, application.Store, guard, dispatcher)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), occupancyService); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		} else {
			utils.Logger.Info("Seeded test data successfully")
		}
	}

	c := cron.New()
	_, sweepErr := c.AddFunc(cfg.ConsistencyCheckSchedule, func() {
		if _, e := occupancyService.RunConsistencySweep(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled consistency sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule consistency sweep cron")
	}
	_, reminderErr := c.AddFunc(cfg.VacateReminderSchedule, func() {
		if _, e := occupancyService.SendVacateReminders(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled vacate reminders failed")
		}
	})
	if reminderErr != nil {
		utils.Logger.WithError(reminderErr).Fatal("Failed to schedule vacate reminder cron")
	}
	c.Start()

	router := controllers.NewRouter(cfg.RSAPublicKey, occupancyService, application.Store)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("occupancy-service failed to start:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	utils.Logger.Info("Shutting down")
	<-c.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Warn("HTTP shutdown did not finish cleanly")
	}
	dispatcher.Wait()
}
