package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/translation-arena/backend/internal/app"
	"github.com/translation-arena/backend/internal/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("TRANSEVAL_CONFIG"), "config file (yaml or json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.Open(cfg, reg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server starting on %s (database: %s)", addr, cfg.Database.Driver)
	if err := http.ListenAndServe(addr, a.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
