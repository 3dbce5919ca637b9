package main

import (
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/sizing-core/internal/improvement"
	"github.com/GoSim-25-26J-441/sizing-core/internal/netlist"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/oraclesvc"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/config"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// newOracleFactory builds the factory for the configured backend. Every
// session gets its own retry and breaker stack with backoff jitter seeded
// from the session. The returned close function releases any shared
// connection.
func newOracleFactory(cfg config.Oracle, supply float64) (improvement.OracleFactory, func() error, error) {
	cooldown := time.Duration(cfg.BreakerCooldownMs) * time.Millisecond
	guard := func(o oracle.Oracle, seed int64) oracle.Oracle {
		policy := oracle.NewRetryPolicy(cfg.Retries, cfg.Backoff, cfg.BaseMs, cfg.MaxMs, utils.NewRandSource(seed))
		return oracle.NewBreaker(oracle.WithRetry(o, policy), cfg.BreakerFailures, 1, cooldown)
	}

	switch cfg.Kind {
	case "process":
		opts := oracle.ProcessOptions{
			Binary:  cfg.Binary,
			WorkDir: cfg.WorkDir,
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		}
		factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
			p, err := oracle.NewProcessOracle(c, supply, opts)
			if err != nil {
				return nil, err
			}
			return guard(p, seed), nil
		}
		return factory, func() error { return nil }, nil

	case "remote":
		conn, err := oraclesvc.Dial(cfg.Target)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using remote oracle", "target", cfg.Target)
		factory := func(c *netlist.Circuit, topology path.Topology, seed int64) (oracle.Oracle, error) {
			return guard(oraclesvc.NewClient(conn), seed), nil
		}
		return factory, conn.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown oracle kind %q", cfg.Kind)
}
