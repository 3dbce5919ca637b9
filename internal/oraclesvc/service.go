// Package oraclesvc exposes a simulation oracle over gRPC. Messages are
// google.protobuf.Struct values so no generated stubs are needed.
package oraclesvc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "sizing.v1.OracleService"
	// SimulateMethod is the full method path of Simulate
	SimulateMethod = "/" + ServiceName + "/Simulate"
)

// OracleServiceServer is the server API for the oracle service
type OracleServiceServer interface {
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func simulateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OracleServiceServer).Simulate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SimulateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OracleServiceServer).Simulate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the oracle service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OracleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Simulate",
			Handler:    simulateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sizing/v1/oracle.proto",
}

// RegisterOracleServiceServer registers srv with s
func RegisterOracleServiceServer(s grpc.ServiceRegistrar, srv OracleServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// EncodeRequest converts a request to its wire form
func EncodeRequest(req oracle.Request) (*structpb.Struct, error) {
	widths := make([]interface{}, len(req.Widths))
	for i, w := range req.Widths {
		widths[i] = w
	}
	return structpb.NewStruct(map[string]interface{}{
		"widths": widths,
		"window": req.Window,
		"step":   req.Step,
		"edge":   req.Edge.String(),
	})
}

// DecodeRequest converts the wire form back to a request
func DecodeRequest(s *structpb.Struct) (oracle.Request, error) {
	if s == nil {
		return oracle.Request{}, fmt.Errorf("%w: empty request", oracle.ErrInvalidRequest)
	}
	fields := s.GetFields()

	var req oracle.Request
	list := fields["widths"].GetListValue()
	if list == nil {
		return oracle.Request{}, fmt.Errorf("%w: widths is required", oracle.ErrInvalidRequest)
	}
	for i, v := range list.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return oracle.Request{}, fmt.Errorf("%w: widths[%d] is not a number", oracle.ErrInvalidRequest, i)
		}
		req.Widths = append(req.Widths, n.NumberValue)
	}

	var err error
	if req.Window, err = number(fields, "window"); err != nil {
		return oracle.Request{}, err
	}
	if req.Step, err = number(fields, "step"); err != nil {
		return oracle.Request{}, err
	}
	if req.Edge, err = oracle.ParseEdge(fields["edge"].GetStringValue()); err != nil {
		return oracle.Request{}, err
	}
	return req, req.Validate()
}

// EncodeOutcome converts an outcome to its wire form
func EncodeOutcome(out oracle.Outcome) *structpb.Struct {
	delay, ok := out.Delay()
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"transitioned": structpb.NewBoolValue(ok),
		"delay":        structpb.NewNumberValue(delay),
	}}
}

// DecodeOutcome converts the wire form back to an outcome
func DecodeOutcome(s *structpb.Struct) (oracle.Outcome, error) {
	fields := s.GetFields()
	t, ok := fields["transitioned"].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return oracle.Outcome{}, fmt.Errorf("malformed outcome: transitioned missing")
	}
	if !t.BoolValue {
		return oracle.NoTransition(), nil
	}
	delay, err := number(fields, "delay")
	if err != nil {
		return oracle.Outcome{}, err
	}
	if !(delay > 0) {
		return oracle.Outcome{}, fmt.Errorf("malformed outcome: delay must be positive, got %g", delay)
	}
	return oracle.Transitioned(delay), nil
}

func number(fields map[string]*structpb.Value, key string) (float64, error) {
	n, ok := fields[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", oracle.ErrInvalidRequest, key)
	}
	return n.NumberValue, nil
}
