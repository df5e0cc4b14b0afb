package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"wootrico/config"
	"wootrico/controllers"
	"wootrico/internal/audit"
	"wootrico/internal/obslog"
	"wootrico/internal/queue"
	"wootrico/internal/reconcile"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
	"wootrico/router"
)

func main() {
	cfg := config.Get()
	log := obslog.New(cfg.LogLevel)

	registry, err := tenant.Discover(log)
	if err != nil {
		log.Fatal().Err(err).Msg("tenant discovery failed")
	}
	log.Info().Int("tenants", len(registry.All())).Msg("tenants discovered")

	auditStore, err := audit.Open(cfg.AuditDBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open audit store")
	}
	defer auditStore.Close()

	mappings := store.NewMappingCache()
	credits := store.NewCreditLedger()

	gc := store.NewGC(mappings, credits, log)
	go gc.Run()
	defer gc.Stop()

	qcfg := queue.Config{URL: cfg.NatsURL}.WithDefaults()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	qclient, err := queue.NewClient(rootCtx, qcfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to queue")
	}
	defer qclient.Close()

	processor := reconcile.New(registry, mappings, credits, auditStore, log)

	consumerCtx, cancelConsumers := context.WithCancel(rootCtx)
	consumerErrs := make(chan error, 1)
	go func() {
		consumerErrs <- qclient.RunWithConsumers(consumerCtx,
			queue.ConsumerSpec{
				Name:    queue.ConsumerPrincipal,
				Subject: queue.SubjectPrincipal,
				Consume: processor.HandlePrincipal,
			},
			queue.ConsumerSpec{
				Name:    queue.ConsumerCallback,
				Subject: queue.SubjectCallback,
				Consume: processor.HandleCallback,
			},
		)
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	router.Initialize(r, controllers.Deps{
		Registry:      registry,
		Queue:         qclient,
		Credits:       credits,
		Audit:         auditStore,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ApiPort).Msg("wootrico listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, draining")

	drain := time.Duration(cfg.DrainTimeoutSeconds) * time.Second
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), drain)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown did not finish cleanly")
	}

	cancelConsumers()
	select {
	case err := <-consumerErrs:
		if err != nil && err != context.Canceled {
			log.Warn().Err(err).Msg("consumer loop exited with error")
		}
	case <-time.After(drain):
		log.Warn().Msg("consumer drain window exceeded, exiting anyway")
	}

	log.Info().Msg("wootrico stopped")
}
