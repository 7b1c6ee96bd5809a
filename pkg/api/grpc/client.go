package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls GameService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a GameService client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Calc evaluates a formula.
func (c *Client) Calc(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Calc", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Roll rolls dice notation.
func (c *Client) Roll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Roll", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
