package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps service errors onto gRPC codes. Internal details never leave
// the server.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, "credential changed concurrently, retry")
	case errors.Is(err, common.ErrorBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	return status.Error(codes.Internal, "internal error")
}

func decode(in *structpb.Struct, msg any) error {
	if err := pb.Decode(in, msg); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(msg any) (*structpb.Struct, error) {
	out, err := pb.Encode(msg)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) SignupData(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	data, err := s.auth.SignupData(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(pb.SignupDataResponse{
		MinIndex:     data.MinIndex,
		MaxIndex:     data.MaxIndex,
		UpdateIndex:  data.UpdateIndex,
		MinDecrement: data.MinDecrement,
		Salt:         data.Salt,
	})
}

func (s *GRPCServer) Signup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.SignupRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	if err := s.auth.Signup(ctx, req.Username, req.Token); err != nil {
		return nil, toStatus(err)
	}

	return encode(pb.Empty{})
}

func (s *GRPCServer) AuthData(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.AuthDataRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	data, err := s.auth.AuthData(ctx, req.Username)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(pb.AuthDataResponse{
		Index:        data.Index,
		Salt:         data.Salt,
		MinIndex:     data.MinIndex,
		MaxIndex:     data.MaxIndex,
		MinDecrement: data.MinDecrement,
		SaltUpdate:   data.SaltUpdate,
		IndexUpdate:  data.IndexUpdate,
	})
}

func (s *GRPCServer) Signin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req pb.SigninRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	res, err := s.auth.Signin(ctx, req.Username, req.Token, req.TokenUpdate)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(pb.SigninResponse{AccessToken: res.AccessToken, Index: res.Index, Rotated: res.Rotated})
}

func (s *GRPCServer) Whoami(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userName, ok := userNameFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	id, err := s.auth.Whoami(ctx, userName)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(pb.WhoamiResponse{
		UserID:   id.UserID,
		Username: id.UserName,
		Index:    id.Index,
		Since:    id.Since.UTC().Format(time.RFC3339),
	})
}
