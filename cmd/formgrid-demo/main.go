// Command formgrid-demo serves seeded in-memory collections together with the
// HTML console that manages them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formgrid/components/consoleweb"
	"github.com/goliatone/go-formgrid/components/memstore"
	"github.com/goliatone/go-formgrid/internal/logging"
	"github.com/goliatone/go-formgrid/internal/metrics"
	"github.com/goliatone/go-formgrid/pkg/config"
	"github.com/goliatone/go-formgrid/pkg/console"
)

func mainImpl() error {
	addr := flag.String("addr", "localhost:8090", "listen address")
	configPath := flag.String("config", "configs/demo.yaml", "console file (JSON or YAML)")
	level := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()

	logger, _, err := logging.Setup(*level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// The console talks to the store through the listener it is served on.
	cfg.BaseURL = "http://" + ln.Addr().String()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	api, err := cfg.Client(logger)
	if err != nil {
		return err
	}
	screens, err := cfg.Screens(ctx, api, logger,
		console.WithListingObserver(collector),
		console.WithFormObserver(collector),
	)
	if err != nil {
		return err
	}

	store := memstore.New(
		memstore.WithLogger(logger),
		memstore.WithCollections(memstore.DemoCollections()...),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	if _, err := store.RegisterRoutes(r, ""); err != nil {
		return err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	prefix, err := consoleweb.RegisterRoutes(r, "", screens,
		consoleweb.WithTitle(cfg.Web.Title),
		consoleweb.WithEngine(engine),
		consoleweb.WithFeed(cfg.ActivityFeed(api, logger)),
		consoleweb.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, prefix+"/", http.StatusFound)
	})

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", "url", cfg.BaseURL+prefix+"/")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "formgrid-demo: %s\n", err)
		os.Exit(1)
	}
}
