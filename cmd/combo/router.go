package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seayoo-io/combo-sdk-go/gm"
	"github.com/seayoo-io/combo-sdk-go/idempotency"
	"github.com/seayoo-io/combo-sdk-go/internal/config"
	"github.com/seayoo-io/combo-sdk-go/internal/metrics"
	"github.com/seayoo-io/combo-sdk-go/internal/middleware"
	"github.com/seayoo-io/combo-sdk-go/notify"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"go.uber.org/zap"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    idempotency.Store
	game     *demoGame
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func newRouter(d routerDeps) (http.Handler, error) {
	sdkCfg := d.cfg.Combo.SDK()

	notifyHandler, err := notify.NewHandler(sdkCfg, d.game,
		webhook.WithLogger(d.logger.Named("notify")),
		webhook.WithObserver(d.metrics.WebhookObserver("notify")),
	)
	if err != nil {
		return nil, err
	}
	gmHandler, err := gm.NewHandler(sdkCfg, d.game,
		webhook.WithLogger(d.logger.Named("gm")),
		webhook.WithStore(d.store),
		webhook.WithObserver(d.metrics.WebhookObserver("gm")),
		webhook.WithIdempotencyObserver(d.metrics.ObserveIdempotency),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog(d.logger))
	r.Use(middleware.Recovery(d.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		webhook.WriteText(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", metrics.Handler(d.gatherer))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.cfg.Server.RequestTimeout))
		r.Handle(d.cfg.Server.NotifyPath, notifyHandler)
		r.Handle(d.cfg.Server.GMPath, gmHandler)
		r.Post("/orders", d.game.createOrder)
	})
	return r, nil
}
