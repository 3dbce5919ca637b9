package oraclesvc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
	"github.com/GoSim-25-26J-441/sizing-core/internal/path"
	"github.com/GoSim-25-26J-441/sizing-core/pkg/logger"
)

// Server serves a local oracle over gRPC
type Server struct {
	oracle  oracle.Oracle
	metrics *Metrics
}

// NewServer creates a server. metrics may be nil.
func NewServer(o oracle.Oracle, metrics *Metrics) *Server {
	return &Server{oracle: o, metrics: metrics}
}

// Simulate decodes the request, runs the oracle and encodes the outcome
func (s *Server) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeRequest(in)
	if err != nil {
		s.observe(labelInvalid, 0)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if s.metrics != nil {
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()
	}
	start := time.Now()
	out, err := s.oracle.Simulate(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, oracle.ErrInvalidRequest), errors.Is(err, path.ErrInvalidWidth):
			s.observe(labelInvalid, elapsed)
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, context.Canceled):
			s.observe(labelError, elapsed)
			return nil, status.Error(codes.Canceled, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			s.observe(labelError, elapsed)
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		s.observe(labelError, elapsed)
		logger.Error("simulation failed", "window", req.Window, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	if out.Transitioned() {
		s.observe(labelTransitioned, elapsed)
	} else {
		s.observe(labelNoTransition, elapsed)
	}
	logger.Debug("simulation served", "window", req.Window, "outcome", out.String(), "duration", elapsed)
	return EncodeOutcome(out), nil
}

func (s *Server) observe(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.simulations.WithLabelValues(outcome).Inc()
	if outcome != labelInvalid {
		s.metrics.duration.Observe(elapsed.Seconds())
	}
}
