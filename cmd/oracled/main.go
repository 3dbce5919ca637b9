package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/sizing-core/internal/improvement"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oraclesvc"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/config"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
)

type options struct {
	grpcAddr   string
	httpAddr   string
	logLevel   string
	technology string
	topology   string
	gates      int
	load       float64
	binary     string
	workDir    string
	timeout    time.Duration
}

// newOracle builds the circuit the daemon owns and the oracle serving it.
// Requests carry the widths; they are applied to the circuit per probe.
func newOracle(opts options) (oracle.Oracle, path.Topology, error) {
	var block *config.Technology
	if opts.technology != "" {
		block = &config.Technology{Name: opts.technology}
	}
	t, err := improvement.ResolveTechnology(block)
	if err != nil {
		return nil, nil, err
	}
	topology, err := path.New(opts.topology, t, opts.gates, opts.load, nil)
	if err != nil {
		return nil, nil, err
	}
	circuit, err := improvement.BuildCircuit(t, topology)
	if err != nil {
		return nil, nil, err
	}
	p, err := oracle.NewProcessOracle(circuit, t.SupplyVoltage, oracle.ProcessOptions{
		Binary:  opts.binary,
		WorkDir: opts.workDir,
		Timeout: opts.timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return oracle.ApplyWidths(topology, p), topology, nil
}

// newHTTPHandler serves liveness and the oracle metrics
func newHTTPHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func main() {
	var opts options
	flag.StringVar(&opts.grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	flag.StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, verbose, info, warn, error)")
	flag.StringVar(&opts.technology, "technology", "", "built-in technology profile (default TSMC180)")
	flag.StringVar(&opts.topology, "topology", path.KindInverterChain, "path topology")
	flag.IntVar(&opts.gates, "gates", 5, "number of gates in the path")
	flag.Float64Var(&opts.load, "load", 32, "load as a multiple of the minimum width")
	flag.StringVar(&opts.binary, "binary", "ngspice", "simulator binary")
	flag.StringVar(&opts.workDir, "work-dir", "", "parent directory of per-probe scratch files")
	flag.DurationVar(&opts.timeout, "timeout", time.Minute, "per-probe simulator timeout")
	flag.Parse()

	logger.SetDefault(logger.NewText(opts.logLevel, os.Stdout))

	o, topology, err := newOracle(opts)
	if err != nil {
		logger.Error("failed to create oracle", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := oraclesvc.NewMetrics(reg)

	// TODO: Configure gRPC server security (e.g., TLS, authentication)
	// before exposing the simulator beyond a trusted network.
	grpcServer := grpc.NewServer()
	oraclesvc.RegisterOracleServiceServer(grpcServer, oraclesvc.NewServer(o, metrics))

	grpcLis, err := net.Listen("tcp", opts.grpcAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", opts.grpcAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              opts.httpAddr,
		Handler:           newHTTPHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("gRPC oracle listening", "addr", opts.grpcAddr, "path", topology.Name())
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", opts.httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
