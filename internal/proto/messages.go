package proto

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SignupDataResponse carries bootstrap parameters for a new identity.
type SignupDataResponse struct {
	MinIndex     int    `json:"minIndex"`
	MaxIndex     int    `json:"maxIndex"`
	UpdateIndex  int    `json:"updateIndex"`
	MinDecrement int    `json:"minDecrement"`
	Salt         string `json:"salt"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type AuthDataRequest struct {
	Username string `json:"username"`
}

// AuthDataResponse tells a claimant where its chain stands. SaltUpdate and
// IndexUpdate are present only when a salt rotation is due.
type AuthDataResponse struct {
	Index        int    `json:"index"`
	Salt         string `json:"salt"`
	MinIndex     int    `json:"minIndex"`
	MaxIndex     int    `json:"maxIndex"`
	MinDecrement int    `json:"minDecrement"`
	SaltUpdate   string `json:"saltUpdate,omitempty"`
	IndexUpdate  int    `json:"indexUpdate,omitempty"`
}

type SigninRequest struct {
	Username    string `json:"username"`
	Token       string `json:"token"`
	TokenUpdate string `json:"tokenUpdate,omitempty"`
}

type SigninResponse struct {
	AccessToken string `json:"accessToken"`
	Index       int    `json:"index"`
	Rotated     bool   `json:"rotated"`
}

type WhoamiResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Index    int    `json:"index"`
	Since    string `json:"since"`
}

type Empty struct{}

// Encode converts a message into its Struct form.
func Encode(msg any) (*structpb.Struct, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}

	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return s, nil
}

// Decode fills msg from s. A nil Struct decodes as an empty object.
func Decode(s *structpb.Struct, msg any) error {
	if s == nil {
		s = &structpb.Struct{}
	}

	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
