package oraclesvc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/sizing-core/internal/oracle"
)

// Client is an oracle backed by a remote OracleService
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates a client over an established connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Simulate sends one probe to the remote service
func (c *Client) Simulate(ctx context.Context, req oracle.Request) (oracle.Outcome, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return oracle.Outcome{}, fmt.Errorf("%w: %v", oracle.ErrInvalidRequest, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, SimulateMethod, in, out); err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return oracle.Outcome{}, fmt.Errorf("%w: %s", oracle.ErrInvalidRequest, status.Convert(err).Message())
		}
		if ctx.Err() != nil {
			return oracle.Outcome{}, ctx.Err()
		}
		return oracle.Outcome{}, fmt.Errorf("remote simulation failed: %w", err)
	}
	return DecodeOutcome(out)
}

// Dial opens a plaintext connection to a remote oracle service
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to oracle service %s: %w", target, err)
	}
	return conn, nil
}
