// file: internal/grpcauth/interceptor_test.go

package grpcauth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"token-keeper/internal/authorizer"
)

type fakeAuthorizer struct {
	header string
	err    error
	reads  int
}

func (f *fakeAuthorizer) AuthorizationHeader() (string, error) {
	f.reads++
	if f.err != nil {
		return "", f.err
	}
	return f.header, nil
}

func TestUnaryClientInterceptorAddsMetadata(t *testing.T) {
	auth := &fakeAuthorizer{header: "Bearer grpc-token"}
	interceptor := UnaryClientInterceptor(auth)

	var gotMD metadata.MD
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	if err := interceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker); err != nil {
		t.Fatalf("interceptor unexpected error: %v", err)
	}

	values := gotMD.Get("authorization")
	if len(values) != 1 || values[0] != "Bearer grpc-token" {
		t.Errorf("authorization metadata = %v, want [Bearer grpc-token]", values)
	}
}

func TestUnaryClientInterceptorSkipsWhenPresent(t *testing.T) {
	auth := &fakeAuthorizer{header: "Bearer managed"}
	interceptor := UnaryClientInterceptor(auth)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer caller-supplied")

	var gotMD metadata.MD
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	if err := interceptor(ctx, "/svc/Method", nil, nil, nil, invoker); err != nil {
		t.Fatalf("interceptor unexpected error: %v", err)
	}

	values := gotMD.Get("authorization")
	if len(values) != 1 || values[0] != "Bearer caller-supplied" {
		t.Errorf("authorization metadata = %v, want the caller's value only", values)
	}
	if auth.reads != 0 {
		t.Errorf("authorizer reads = %d, want 0 when metadata is already set", auth.reads)
	}
}

func TestUnaryClientInterceptorUnauthenticated(t *testing.T) {
	auth := &fakeAuthorizer{err: &authorizer.UnavailableError{Cause: errors.New("refresh failed")}}
	interceptor := UnaryClientInterceptor(auth)

	invoked := false
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		invoked = true
		return nil
	}

	err := interceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	if err == nil {
		t.Fatal("interceptor expected error, got nil")
	}
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("status code = %v, want Unauthenticated", status.Code(err))
	}
	if invoked {
		t.Error("invoker was called despite the missing credential")
	}
}

func TestStreamClientInterceptor(t *testing.T) {
	auth := &fakeAuthorizer{header: "Bearer stream-token"}
	interceptor := StreamClientInterceptor(auth)

	var gotMD metadata.MD
	streamer := func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil, nil
	}

	if _, err := interceptor(context.Background(), &grpc.StreamDesc{}, nil, "/svc/Stream", streamer); err != nil {
		t.Fatalf("interceptor unexpected error: %v", err)
	}

	values := gotMD.Get("authorization")
	if len(values) != 1 || values[0] != "Bearer stream-token" {
		t.Errorf("authorization metadata = %v, want [Bearer stream-token]", values)
	}
}

func TestStreamClientInterceptorUnauthenticated(t *testing.T) {
	auth := &fakeAuthorizer{err: &authorizer.UnavailableError{Cause: errors.New("no token")}}
	interceptor := StreamClientInterceptor(auth)

	streamer := func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		t.Fatal("streamer was called despite the missing credential")
		return nil, nil
	}

	_, err := interceptor(context.Background(), &grpc.StreamDesc{}, nil, "/svc/Stream", streamer)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("status code = %v, want Unauthenticated", status.Code(err))
	}
}
