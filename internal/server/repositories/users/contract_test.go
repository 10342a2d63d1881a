package users

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type fakeObject struct {
	body []byte
	etag string
}

// fakeS3 is an in-memory bucket honouring If-Match and If-None-Match.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.body)), ETag: aws.String(o.etag)}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ETag: aws.String(o.etag)}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Key)
	cur, exists := f.objects[key]

	if aws.ToString(in.IfNoneMatch) == "*" && exists {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}
	if in.IfMatch != nil && (!exists || cur.etag != aws.ToString(in.IfMatch)) {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	f.objects[key] = fakeObject{body: body, etag: etag}
	f.puts++

	return &s3.PutObjectOutput{ETag: aws.String(etag)}, nil
}

func openMemLevelDB(t *testing.T) *leveldb.DB {
	t.Helper()
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"memory":  NewMemoryRepository(),
		"leveldb": NewLevelDBRepository(openMemLevelDB(t)),
		"s3":      NewS3Repository(newFakeS3(), "bucket", "users/"),
	}
}

func TestRepository_Contract(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := repo.Exists(ctx, "alice")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = repo.GetUserByLogin(ctx, "alice")
			assert.ErrorIs(t, err, common.ErrorNotFound)

			created, err := repo.Create(ctx, &models.User{UserName: "alice", Credential: "t0"})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			_, err = repo.Create(ctx, &models.User{UserName: "alice", Credential: "other"})
			assert.ErrorIs(t, err, common.ErrorAlreadyExists)

			ok, err = repo.Exists(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := repo.GetUserByLogin(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, "t0", got.Credential)

			require.NoError(t, repo.SwapCredential(ctx, "alice", "t0", "t1"))

			// a second swap from the same starting point loses
			assert.ErrorIs(t, repo.SwapCredential(ctx, "alice", "t0", "t1b"), common.ErrVersionConflict)

			got, err = repo.GetUserByLogin(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "t1", got.Credential)

			assert.ErrorIs(t, repo.SwapCredential(ctx, "bob", "x", "y"), common.ErrorNotFound)
		})
	}
}

func TestRepository_ConcurrentSwapHasOneWinner(t *testing.T) {
	ctx := context.Background()

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Create(ctx, &models.User{UserName: "carol", Credential: "start"})
			require.NoError(t, err)

			const n = 8
			var wg sync.WaitGroup
			results := make(chan error, n)

			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results <- repo.SwapCredential(ctx, "carol", "start", string(rune('a'+i)))
				}(i)
			}
			wg.Wait()
			close(results)

			var wins, conflicts int
			for err := range results {
				switch {
				case err == nil:
					wins++
				case assert.ErrorIs(t, err, common.ErrVersionConflict):
					conflicts++
				}
			}
			assert.Equal(t, 1, wins)
			assert.Equal(t, n-1, conflicts)
		})
	}
}

func TestS3Repository_KeysAreEscaped(t *testing.T) {
	fake := newFakeS3()
	repo := NewS3Repository(fake, "bucket", "p/")

	_, err := repo.Create(context.Background(), &models.User{UserName: "a/b c", Credential: "t"})
	require.NoError(t, err)

	_, ok := fake.objects["p/a%2Fb%20c.json"]
	assert.True(t, ok)
}

func TestLevelDBRepository_OpenFile(t *testing.T) {
	db, err := OpenLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	repo := NewLevelDBRepository(db)
	_, err = repo.Create(context.Background(), &models.User{UserName: "dave", Credential: "t"})
	require.NoError(t, err)

	got, err := repo.GetUserByLogin(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Credential)
}
