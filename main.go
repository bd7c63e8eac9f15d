package main

import (
	"lead-checkout/catalog"
	"lead-checkout/checkout"
	"lead-checkout/config"
	"lead-checkout/helpers"
	"lead-checkout/leadstore"
	"lead-checkout/monitoring"
	"lead-checkout/payments"
	"lead-checkout/routes"

	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err.Error())
	}

	logger, err := helpers.NewLogger(conf.Global.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err.Error())
	}

	err = run(conf, logger)
	if err != nil {
		logger.Fatal("checkout server stopped", zap.Error(err))
	}
}

// run wires the server and blocks until gin returns. Deferred cleanup runs
// before main decides to exit.
func run(conf config.Config, logger *zap.Logger) error {
	defer logger.Sync() //nolint:errcheck

	plans, err := catalog.Load(conf.Checkout.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}

	stripeProcessor := payments.NewStripe(conf.Stripe.SecretKey)
	if conf.Stripe.VerifyPrices {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		verified, err := stripeProcessor.VerifyPriceRefs(ctx, plans)
		cancel()
		if err != nil {
			return fmt.Errorf("price verification failed: %w", err)
		}
		for _, ref := range plans.AllPriceRefs() {
			price := verified[ref]
			logger.Info("verified price",
				zap.String("price_id", ref),
				zap.String("product_id", price.ProductID),
				zap.String("amount", price.PriceStr),
				zap.String("currency", price.Currency),
				zap.String("interval", price.RecurringInterval),
			)
		}
	}

	reporter, err := monitoring.NewSentryReporter(conf.Sentry.DSN, conf.Sentry.Environment)
	if err != nil {
		return fmt.Errorf("failed to init error reporting: %w", err)
	}
	if sr, ok := reporter.(*monitoring.SentryReporter); ok {
		defer sr.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := leadstore.New(ctx, conf.Store)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open %v lead store: %w", conf.Store.Driver, err)
	}
	defer store.Close()

	metrics := monitoring.New(prometheus.DefaultRegisterer)
	flow := checkout.NewFlow(
		store,
		payments.NewBootstrapper(plans, stripeProcessor, conf.SuccessURL(), conf.CancelURL()),
		logger,
		checkout.WithMetrics(metrics),
		checkout.WithReporter(reporter),
	)

	// start up the api server
	r := gin.New()
	r.Use(helpers.Recovery(logger), helpers.RequestLogger(logger), metrics.Middleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	routes.New(conf, plans, flow, logger).Register(r)

	addr := fmt.Sprintf("%v:%v", conf.Global.BindAddr, conf.Global.BindPort)
	logger.Info("listening", zap.String("addr", addr), zap.String("store", conf.Store.Driver))
	err = r.Run(addr)
	if err != nil {
		return fmt.Errorf("error running gin: %w", err)
	}
	return nil
}
