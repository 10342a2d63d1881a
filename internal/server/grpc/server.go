// Package grpc exposes services.AuthService as chainkeeper.CredentialService,
// together with the standard gRPC health service.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/dmitrijs2005/chainkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// AuthService is the business logic the handlers delegate to.
type AuthService interface {
	SignupData(ctx context.Context) (*ratchet.InitialData, error)
	Signup(ctx context.Context, userName, token string) error
	AuthData(ctx context.Context, userName string) (*ratchet.AuthData, error)
	Signin(ctx context.Context, userName, token, tokenUpdate string) (*services.SigninResult, error)
	Whoami(ctx context.Context, userName string) (*services.Identity, error)
}

type GRPCServer struct {
	pb.UnimplementedCredentialServiceServer
	address   string
	auth      AuthService
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		auth:      as,
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	pb.RegisterCredentialServiceServer(srv, s)
	grpc_health_v1.RegisterHealthServer(srv, s.health)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.health.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
