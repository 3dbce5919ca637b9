package improvement

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/utils"
)

// MultistartReport holds every independent run and the winner
type MultistartReport struct {
	Best    *RunReport
	Reports []*RunReport
}

// RunMultistart runs starts independent sessions, each with its own
// circuit, topology, oracle and seed, using at most workers goroutines.
// The winner is chosen with the configured tie-break policy and is the only
// run recorded. A failing session cancels the others.
func RunMultistart(ctx context.Context, cfg SessionConfig, factory OracleFactory, starts, workers int) (*MultistartReport, error) {
	if starts < 1 {
		return nil, fmt.Errorf("starts must be at least 1, got %d", starts)
	}
	if workers < 1 {
		workers = 1
	}

	root := utils.NewRandSource(cfg.Seed)
	seeds := make([]int64, starts)
	for i := range seeds {
		seeds[i] = root.Child().Seed()
	}

	reports := make([]*RunReport, starts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < starts; i++ {
		i := i
		g.Go(func() error {
			sub := cfg
			sub.Seed = seeds[i]
			sub.RecordDir = ""
			report, err := NewSession(sub, factory).Run(gctx)
			if err != nil {
				return fmt.Errorf("start %d: %w", i, err)
			}
			reports[i] = report
			logger.Info("start finished", "start", i, "seed", sub.Seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &MultistartReport{Reports: reports}
	policy := cfg.Strategy.TieBreak
	if policy == nil {
		policy = DefaultStrategy().TieBreak
	}
	candidates := make([]Result, 0, starts)
	owners := make([]int, 0, starts)
	for i, r := range reports {
		if r.Result != nil && r.Result.Best != nil {
			candidates = append(candidates, *r.Result.Best)
			owners = append(owners, i)
		}
	}
	if idx := SelectBest(candidates, policy); idx >= 0 {
		out.Best = reports[owners[idx]]
	} else {
		out.Best = reports[0]
	}

	if cfg.RecordDir != "" {
		if err := Record(cfg.RecordDir, out.Best, cfg.RecordRatios); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Spread returns the relative spread between the fastest and slowest
// winning delay across starts, or 0 with fewer than two results
func (m *MultistartReport) Spread() float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, r := range m.Reports {
		if r == nil || r.Result == nil || r.Result.Best == nil {
			continue
		}
		lo = math.Min(lo, r.Result.Best.Delay)
		hi = math.Max(hi, r.Result.Best.Delay)
		n++
	}
	if n < 2 {
		return 0
	}
	return utils.RelativeDiff(lo, hi)
}
