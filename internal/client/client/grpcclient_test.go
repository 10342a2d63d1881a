package client

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// stubServer answers every RPC from canned values and records what it saw.
type stubServer struct {
	pb.UnimplementedCredentialServiceServer

	lastSignup  pb.SignupRequest
	lastAuth    pb.AuthDataRequest
	lastSignin  pb.SigninRequest
	lastTokenMD []string

	signinErr error
	whoamiErr error
}

func reply(msg any) (*structpb.Struct, error) {
	return pb.Encode(msg)
}

func (s *stubServer) SignupData(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return reply(&pb.SignupDataResponse{MinIndex: 100, MaxIndex: 1000, UpdateIndex: 300, MinDecrement: 1, Salt: "c2FsdA=="})
}

func (s *stubServer) Signup(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := pb.Decode(in, &s.lastSignup); err != nil {
		return nil, err
	}
	if s.lastSignup.Username == "taken" {
		return nil, status.Error(codes.AlreadyExists, "already exists")
	}
	return reply(&pb.Empty{})
}

func (s *stubServer) AuthData(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := pb.Decode(in, &s.lastAuth); err != nil {
		return nil, err
	}
	return reply(&pb.AuthDataResponse{Index: 900, Salt: "c2FsdA==", MinIndex: 100, MaxIndex: 1000, MinDecrement: 1})
}

func (s *stubServer) Signin(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := pb.Decode(in, &s.lastSignin); err != nil {
		return nil, err
	}
	if s.signinErr != nil {
		return nil, s.signinErr
	}
	return reply(&pb.SigninResponse{AccessToken: "jwt-1", Index: 899})
}

func (s *stubServer) Whoami(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	s.lastTokenMD = md.Get(common.AccessTokenHeaderName)
	if s.whoamiErr != nil {
		return nil, s.whoamiErr
	}
	return reply(&pb.WhoamiResponse{UserID: "u-1", Username: "alice", Index: 899})
}

func startClient(t *testing.T, stub *stubServer) (*GRPCClient, *health.Server) {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	pb.RegisterCredentialServiceServer(srv, stub)
	hs := health.NewServer()
	hs.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()

	c, err := NewCredentialClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		srv.Stop()
	})
	return c, hs
}

func TestGRPCClient_SignupFlow(t *testing.T) {
	stub := &stubServer{}
	c, _ := startClient(t, stub)
	ctx := context.Background()

	data, err := c.SignupData(ctx)
	require.NoError(t, err)
	assert.Equal(t, &pb.SignupDataResponse{MinIndex: 100, MaxIndex: 1000, UpdateIndex: 300, MinDecrement: 1, Salt: "c2FsdA=="}, data)

	require.NoError(t, c.Signup(ctx, "alice", "tok"))
	assert.Equal(t, pb.SignupRequest{Username: "alice", Token: "tok"}, stub.lastSignup)

	assert.ErrorIs(t, c.Signup(ctx, "taken", "tok"), ErrAlreadyExists)
}

func TestGRPCClient_SigninKeepsToken(t *testing.T) {
	stub := &stubServer{}
	c, _ := startClient(t, stub)
	ctx := context.Background()

	ad, err := c.AuthData(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 900, ad.Index)
	assert.Equal(t, "alice", stub.lastAuth.Username)

	_, err = c.Whoami(ctx)
	require.NoError(t, err)
	assert.Empty(t, stub.lastTokenMD)

	resp, err := c.Signin(ctx, &pb.SigninRequest{Username: "alice", Token: "t", TokenUpdate: "u"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", resp.AccessToken)
	assert.Equal(t, pb.SigninRequest{Username: "alice", Token: "t", TokenUpdate: "u"}, stub.lastSignin)

	who, err := c.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", who.Username)
	assert.Equal(t, []string{"jwt-1"}, stub.lastTokenMD)

	c.SetAccessToken("other")
	_, err = c.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, stub.lastTokenMD)
}

func TestGRPCClient_SigninFailureKeepsOldToken(t *testing.T) {
	stub := &stubServer{signinErr: status.Error(codes.Unauthenticated, "unauthorized")}
	c, _ := startClient(t, stub)
	c.SetAccessToken("old")

	_, err := c.Signin(context.Background(), &pb.SigninRequest{Username: "alice", Token: "t"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "old", c.token())
}

func TestGRPCClient_Ping(t *testing.T) {
	c, hs := startClient(t, &stubServer{})
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	hs.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	assert.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
}

func TestInterceptor_AttachesTokenOnlyWhenSet(t *testing.T) {
	c := &GRPCClient{}

	var seen []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		seen = md.Get(common.AccessTokenHeaderName)
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
	assert.Empty(t, seen)

	c.SetAccessToken("A1")
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "stale")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
	assert.Equal(t, []string{"A1"}, seen)
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	assert.Nil(t, c.mapError(nil))
	assert.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	assert.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.PermissionDenied, "x")))
	assert.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	assert.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	assert.Equal(t, ErrAlreadyExists, c.mapError(status.Error(codes.AlreadyExists, "x")))
	assert.Equal(t, ErrConflict, c.mapError(status.Error(codes.Aborted, "x")))

	expired := c.mapError(status.Error(codes.Unauthenticated, "token expired"))
	assert.ErrorIs(t, expired, ErrUnauthorized)
	assert.ErrorIs(t, expired, common.ErrTokenExpired)

	bad := c.mapError(status.Error(codes.InvalidArgument, "index out of bounds"))
	assert.ErrorIs(t, bad, ErrBadRequest)
	assert.ErrorContains(t, bad, "index out of bounds")

	assert.ErrorContains(t, c.mapError(status.Error(codes.Internal, "boom")), "rpc error:")
	assert.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
}
