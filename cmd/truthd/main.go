package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ritamzico/truth"
	"github.com/ritamzico/truth/internal/config"
	"github.com/ritamzico/truth/internal/urireader"
)

func main() {
	flags := pflag.NewFlagSet("truthd", pflag.ExitOnError)
	port := flags.Int("port", 8080, "port to listen on")
	configPath := flags.String("config", "", "config file path")
	uriRoot := flags.String("uri-root", ".", "filesystem root for file:// references")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	p := truth.New(cfg, logger, urireader.NewFileReader(*uriRoot))
	metrics := newServerMetrics()
	metrics.wire(p)

	srv := newServer(logger, p)

	mux := http.NewServeMux()
	mux.Handle("/", srv.mux())
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("truthd listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
