package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/matst80/slask-catalog/pkg/cache"
	"github.com/matst80/slask-catalog/pkg/catalog"
	"github.com/matst80/slask-catalog/pkg/client"
	"github.com/matst80/slask-catalog/pkg/common"
	"github.com/matst80/slask-catalog/pkg/config"
	"github.com/matst80/slask-catalog/pkg/fetch"
	"github.com/matst80/slask-catalog/pkg/location"
	"github.com/matst80/slask-catalog/pkg/options"
	"github.com/matst80/slask-catalog/pkg/query"
	"github.com/matst80/slask-catalog/pkg/tracking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configPath   = flag.String("config", os.Getenv("CATALOG_CONFIG"), "path to yaml config")
	initialQuery = flag.String("query", "", "initial catalog query, e.g. minVal=1000&sort=Новинки")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	cfg.ApplyEnv()

	api := client.New(cfg.API, &http.Client{Timeout: cfg.API.Timeout})
	hooks := []common.ShutdownHook{}

	var store cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		store = rc
		hooks = append(hooks, func(ctx context.Context) error {
			return rc.Close()
		})
	}

	var sessions catalog.Sessions
	if cfg.Tracking.RabbitURL != "" {
		rt, err := tracking.NewRabbitTracking(cfg.Tracking.RabbitURL, cfg.Tracking.Country)
		if err != nil {
			log.Printf("failed to connect to rabbitmq for tracking: %v", err)
		} else {
			sessions = rt
			hooks = append(hooks, func(ctx context.Context) error {
				return rt.Close()
			})
		}
	}

	loc := location.Parse(*initialQuery)
	loader := options.NewLoader(api, options.WithCache(store), options.WithTTL(cfg.Catalog.OptionsTTL))
	view := catalog.NewView(loc, api, loader, catalog.Config{
		Codec:      &query.Codec{PriceMin: cfg.Catalog.PriceMin, PriceMax: cfg.Catalog.PriceMax},
		PageSize:   cfg.Catalog.PageSize,
		PriceDelay: cfg.Catalog.PriceDebounce,
		Notifier: fetch.NotifierFunc(func(err error) {
			fmt.Fprintf(os.Stdout, "\nsearch failed: %v\n", err)
		}),
		Sessions: sessions,
	})
	// close the view before the connections it tracks to
	hooks = append([]common.ShutdownHook{func(ctx context.Context) error {
		view.Close()
		return nil
	}}, hooks...)

	ctx, cancel := common.SignalContext(context.Background())
	defer cancel()

	sh := newShell(view, loc, os.Stdout)
	unsubscribe := view.OnResults(func(v fetch.View) {
		if !v.Loading {
			sh.printResults(v)
		}
	})
	defer unsubscribe()

	log.Printf("catalog view %s against %s", view.Id, cfg.API.BaseURL)
	view.Start(ctx)

	go func() {
		sh.run(ctx, os.Stdin)
		cancel()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts())
	common.RunServerUntilDone(ctx, common.NewServer(cfg.Debug.Address, mux, timeouts), "catalog debug server", timeouts, hooks...)
}
