package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.CredentialServiceClient
	health      grpc_health_v1.HealthClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewCredentialClient dials endpointURL lazily; the first RPC establishes
// the connection.
func NewCredentialClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewCredentialServiceClient(conn)
	s.health = grpc_health_v1.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SignupData(ctx context.Context) (*pb.SignupDataResponse, error) {
	resp := &pb.SignupDataResponse{}
	if err := s.call(ctx, s.client.SignupData, &pb.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) Signup(ctx context.Context, username, token string) error {
	return s.call(ctx, s.client.Signup, &pb.SignupRequest{Username: username, Token: token}, &pb.Empty{})
}

func (s *GRPCClient) AuthData(ctx context.Context, username string) (*pb.AuthDataResponse, error) {
	resp := &pb.AuthDataResponse{}
	if err := s.call(ctx, s.client.AuthData, &pb.AuthDataRequest{Username: username}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Signin submits the credential and, on success, keeps the returned access
// token for later calls.
func (s *GRPCClient) Signin(ctx context.Context, req *pb.SigninRequest) (*pb.SigninResponse, error) {
	resp := &pb.SigninResponse{}
	if err := s.call(ctx, s.client.Signin, req, resp); err != nil {
		return nil, err
	}
	s.SetAccessToken(resp.AccessToken)
	return resp, nil
}

func (s *GRPCClient) Whoami(ctx context.Context) (*pb.WhoamiResponse, error) {
	resp := &pb.WhoamiResponse{}
	if err := s.call(ctx, s.client.Whoami, &pb.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Ping asks the health service whether the credential service is serving.
func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: pb.ServiceName})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

type rpc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (s *GRPCClient) call(ctx context.Context, method rpc, req, resp any) error {
	in, err := pb.Encode(req)
	if err != nil {
		return err
	}

	out, err := method(ctx, in)
	if err != nil {
		return s.mapError(err)
	}

	return pb.Decode(out, resp)
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		if st.Message() == common.ErrTokenExpired.Error() {
			return fmt.Errorf("%w: %w", ErrUnauthorized, common.ErrTokenExpired)
		}
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.Aborted:
		return ErrConflict
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrBadRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
