package datasources

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
)

var _ BlockStorage = (*S3Storage)(nil)

// S3Config locates block files in an S3 compatible bucket.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Anonymous bool   `mapstructure:"anonymous"`
}

// NewS3Client creates an S3 client from the default credential chain and cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	sdkConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "can't load aws user config")
	}
	return s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.Anonymous {
			o.Credentials = aws.AnonymousCredentials{}
		}
	}), nil
}

// S3Storage reads "<prefix>/<height>.json" block files from an S3 bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Storage(client *s3.Client, bucket, prefix string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3Storage) Name() string {
	return "s3"
}

func (s *S3Storage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Storage) Read(ctx context.Context, height int64) ([]byte, error) {
	downloader := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.Concurrency = 4
		d.PartSize = 10 * 1024 * 1024
	})

	key := s.key(blockFileName(height))
	buffer := manager.NewWriteAtBuffer([]byte{})
	numBytes, err := downloader.Download(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errors.Wrapf(errs.NotFound, "block file for height %d", height)
		}
		return nil, errors.Wrapf(err, "failed to download file for bucket %q and key %q", s.bucket, key)
	}
	if numBytes < 1 {
		return nil, errors.Wrapf(errs.NotFound, "got empty block file for height %d", height)
	}
	return buffer.Bytes(), nil
}

func (s *S3Storage) LatestHeight(ctx context.Context) (int64, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	latest := int64(-1)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, errors.Wrapf(err, "can't list s3 bucket objects for bucket %q and prefix %q", s.bucket, prefix)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if height, ok := parseBlockFileName(*obj.Key); ok && height > latest {
				latest = height
			}
		}
	}
	if latest < 0 {
		return 0, errors.Wrapf(errs.NotFound, "no block files in bucket %q with prefix %q", s.bucket, prefix)
	}
	return latest, nil
}
