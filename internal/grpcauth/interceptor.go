// file: internal/grpcauth/interceptor.go

// Package grpcauth attaches bearer credentials to outgoing gRPC calls.
package grpcauth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"token-keeper/internal/authorizer"
)

// metadataKey is the lowercase metadata key gRPC uses for the
// authorization header.
const metadataKey = "authorization"

// UnaryClientInterceptor returns an interceptor that adds the current
// authorization header to outgoing request metadata. A call that already
// carries authorization metadata is forwarded untouched. If the
// authorizer reports failure, the call is aborted with Unauthenticated.
func UnaryClientInterceptor(a authorizer.Authorizer) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, err := withAuthorization(ctx, a)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns the streaming counterpart of
// UnaryClientInterceptor.
func StreamClientInterceptor(a authorizer.Authorizer) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, err := withAuthorization(ctx, a)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

func withAuthorization(ctx context.Context, a authorizer.Authorizer) (context.Context, error) {
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(metadataKey)) > 0 {
		return ctx, nil
	}

	header, err := a.AuthorizationHeader()
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return metadata.AppendToOutgoingContext(ctx, metadataKey, header), nil
}
