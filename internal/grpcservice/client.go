package grpcservice

import (
	"context"
	"fmt"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/ipc"
	"go.klb.dev/recall/internal/recall"
)

// Client calls a recall daemon.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// DialIPC connects to the daemon on the local IPC socket. No auth: the socket
// is owner-only.
func DialIPC() (*grpc.ClientConn, error) {
	return grpc.NewClient(ipc.Target(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Status returns the daemon's status.
func (c *Client) Status(ctx context.Context) (StatusInfo, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Status"), &emptypb.Empty{}, out); err != nil {
		return StatusInfo{}, fromStatus(err)
	}
	return decodeStatus(out), nil
}

// List returns the daemon's history, newest first.
func (c *Client) List(ctx context.Context) ([]history.Entry, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("List"), &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return decodeEntries(out), nil
}

// Get returns the text at index (0 = newest).
func (c *Client) Get(ctx context.Context, index int) (string, error) {
	out := new(httpbody.HttpBody)
	if err := c.cc.Invoke(ctx, fullMethod("Get"), wrapperspb.Int64(int64(index)), out); err != nil {
		return "", fromStatus(err)
	}
	return string(out.GetData()), nil
}

// Add records text in the daemon's history.
func (c *Client) Add(ctx context.Context, text string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, fullMethod("Add"), wrapperspb.String(text), out); err != nil {
		return false, fromStatus(err)
	}
	return out.GetValue(), nil
}

// Cycle runs a cycle action in the daemon and returns its notice.
func (c *Client) Cycle(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, fullMethod("Cycle"), &emptypb.Empty{}, out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// Restore copies the nth entry (1 = newest) to the clipboard via the daemon.
func (c *Client) Restore(ctx context.Context, n int) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, fullMethod("Restore"), wrapperspb.Int64(int64(n)), out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// RestoreText copies text to the clipboard via the daemon.
func (c *Client) RestoreText(ctx context.Context, text string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, fullMethod("RestoreText"), wrapperspb.String(text), out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// Clear empties the daemon's history.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.cc.Invoke(ctx, fullMethod("Clear"), &emptypb.Empty{}, new(emptypb.Empty)); err != nil {
		return fromStatus(err)
	}
	return nil
}

// fromStatus turns gRPC codes back into recall's sentinel errors.
func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return recall.ErrNoHistory
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", recall.ErrInvalidIndex, status.Convert(err).Message())
	default:
		return err
	}
}
