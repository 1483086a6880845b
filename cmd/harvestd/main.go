package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"medharvest-backend/lib/configutil"
	"medharvest-backend/lib/util/serviceutil"
)

type Config struct {
	Port        int               `json:"port"`
	AccessToken string            `json:"access_token"`
	TenantStore TenantStoreConfig `json:"tenantstore"`
	Blobs       BlobsConfig       `json:"blobs"`
	Events      EventsConfig      `json:"events"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}

	mux := http.NewServeMux()

	tenants, err := InitTenantStore(cfg.TenantStore)
	if err != nil {
		serviceutil.Fatal("init tenantstore", err)
	}
	blobs, err := InitBlobs(ctx, cfg.Blobs)
	if err != nil {
		serviceutil.Fatal("init blobs", err)
	}
	sink := InitEvents(mux, cfg.Events)

	manager := InitOrchestrator(mux, tenants, blobs, sink, cfg.AccessToken)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	manager.Shutdown(shutdownCtx)
	tenants.Close()
}
