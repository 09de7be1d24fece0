package server

import (
	"net/http"

	"github.com/iov-one/escrowd/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Serve exposes the application over the ABCI socket protocol on addr until
// done is closed. If metricsAddr is not empty, prometheus metrics are
// served over HTTP on that address as well.
func Serve(a abci.Application, addr, metricsAddr string, logger log.Logger, done <-chan struct{}) error {
	svr, err := server.NewServer(addr, "socket", a)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	logger.Info("Starting ABCI app", "bind", addr)
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrInvalidState, "start server: %s", err)
	}
	defer func() {
		if err := svr.Stop(); err != nil {
			logger.Error("Cannot stop ABCI server", "err", err)
		}
	}()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		hs := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			logger.Info("Serving metrics", "bind", metricsAddr)
			if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "err", err)
			}
		}()
		defer hs.Close()
	}

	<-done
	logger.Info("Stopping ABCI app")
	return nil
}
