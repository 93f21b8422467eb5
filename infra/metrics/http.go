package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steelroute/rakeflow/infra/logger"
)

// StartPromServer serves the Prometheus scrape endpoint on addr until ctx is
// canceled. The handler gets its own mux so it never collides with other
// HTTP surfaces in the process.
func StartPromServer(ctx context.Context, addr string) error {
	log := logger.New("prom-server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			log.Errorf("metrics server shutdown: %v", err)
		}
	}()

	log.Infof("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
