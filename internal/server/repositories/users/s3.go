package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/google/uuid"
)

// S3API is the part of *s3.Client the repository uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Repository keeps one JSON object per user under prefix. Create relies on
// If-None-Match and SwapCredential on If-Match, so the bucket must support
// conditional writes.
type S3Repository struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Repository(client S3API, bucket, prefix string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

func (r *S3Repository) key(login string) *string {
	return aws.String(r.prefix + url.PathEscape(login) + ".json")
}

func (r *S3Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	b, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         r.key(user.UserName),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("s3 error: %w", err)
	}

	return user, nil
}

func (r *S3Repository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	u, _, err := r.get(ctx, login)
	return u, err
}

func (r *S3Repository) get(ctx context.Context, login string) (*models.User, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    r.key(login),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", common.ErrorNotFound
		}
		return nil, "", fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("s3 error: %w", err)
	}

	u := &models.User{}
	if err := json.Unmarshal(b, u); err != nil {
		return nil, "", fmt.Errorf("s3 object %q: %w", login, err)
	}

	return u, aws.ToString(out.ETag), nil
}

func (r *S3Repository) Exists(ctx context.Context, login string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    r.key(login),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3 error: %w", err)
	}
	return true, nil
}

func (r *S3Repository) SwapCredential(ctx context.Context, login, expected, replacement string) error {
	u, etag, err := r.get(ctx, login)
	if err != nil {
		return err
	}
	if u.Credential != expected {
		return common.ErrVersionConflict
	}

	u.Credential = replacement
	u.UpdatedAt = time.Now().UTC()

	b, err := json.Marshal(u)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         r.key(login),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
		IfMatch:     aws.String(etag),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

// isPreconditionFailed also matches 409 ConditionalRequestConflict, which S3
// returns when a competing conditional write is in flight.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
