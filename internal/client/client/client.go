package client

import (
	"context"

	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
)

type Client interface {
	Close() error
	SignupData(ctx context.Context) (*pb.SignupDataResponse, error)
	Signup(ctx context.Context, username, token string) error
	AuthData(ctx context.Context, username string) (*pb.AuthDataResponse, error)
	Signin(ctx context.Context, req *pb.SigninRequest) (*pb.SigninResponse, error)
	Whoami(ctx context.Context) (*pb.WhoamiResponse, error)
	Ping(ctx context.Context) error
	SetAccessToken(token string)
}
