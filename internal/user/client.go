package user

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Address  string
	Role     Role
}

// Client talks to the user-service over gRPC.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Dial creates a non-blocking connection; RPCs wait for it to become ready.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(addr, opts...)
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	req, err := structpb.NewStruct(map[string]any{
		"email":     in.Email,
		"password":  in.Password,
		"full_name": in.FullName,
		"address":   in.Address,
		"role":      string(in.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("structpb.NewStruct: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodRegisterUser, req, out, grpc.WaitForReady(true)); err != nil {
		return nil, fromStatus(err)
	}
	return fromStruct(out)
}

func (c *Client) Get(ctx context.Context, id int64) (*User, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodGetUser, wrapperspb.Int64(id), out, grpc.WaitForReady(true)); err != nil {
		return nil, fromStatus(err)
	}
	return fromStruct(out)
}

func (c *Client) Validate(ctx context.Context, id int64) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, methodValidateUser, wrapperspb.Int64(id), out, grpc.WaitForReady(true)); err != nil {
		return false, fromStatus(err)
	}
	return out.GetValue(), nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.conn.Invoke(ctx, methodDeleteUser, wrapperspb.Int64(id), new(emptypb.Empty), grpc.WaitForReady(true)); err != nil {
		return fromStatus(err)
	}
	return nil
}

// fromStatus maps gRPC codes back onto the package sentinels.
func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, status.Convert(err).Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExist, status.Convert(err).Message())
	default:
		return err
	}
}
