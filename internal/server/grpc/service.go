package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName      = "keuthlie.auth.v0.TokenVerifier"
	VerifyFullMethod = "/" + ServiceName + "/Verify"
)

// TokenVerifierServer checks a token and returns the identity id it was
// issued to. Request and response are google.protobuf.StringValue.
type TokenVerifierServer interface {
	Verify(ctx context.Context, token *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// TokenVerifierServiceDesc describes the service for grpc.Server.RegisterService.
var TokenVerifierServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenVerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: verifyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keuthlie/auth/v0/verifier.proto",
}

func verifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenVerifierServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenVerifierServer).Verify(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// TokenVerifierClient calls the verifier from other services.
type TokenVerifierClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenVerifierClient(cc grpc.ClientConnInterface) *TokenVerifierClient {
	return &TokenVerifierClient{cc: cc}
}

// Verify returns the identity id of token.
func (c *TokenVerifierClient) Verify(ctx context.Context, token string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, VerifyFullMethod, wrapperspb.String(token), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
