package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/chainkeeper/internal/server/config"
	"github.com/dmitrijs2005/chainkeeper/internal/server/repositories/users"
)

var (
	sqlOpen = sql.Open

	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Store is an opened credential store. Close releases whatever connection
// the backend holds.
type Store struct {
	Users users.Repository
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open builds the repository selected by cfg.StoreDriver. For postgres the
// schema is migrated before returning.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return openPostgres(ctx, cfg)
	case config.StoreMemory:
		return &Store{Users: users.NewMemoryRepository()}, nil
	case config.StoreLevelDB:
		db, err := users.OpenLevelDB(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		return &Store{Users: users.NewLevelDBRepository(db), close: db.Close}, nil
	case config.StoreS3:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Store{Users: users.NewS3Repository(client, cfg.S3Bucket, cfg.S3Prefix)}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Store{Users: m.Users(db), close: db.Close}, nil
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}
