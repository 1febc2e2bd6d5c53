package changelog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/brc20-indexer/pkg/parquetutils"
)

// Sink receives the rows of every processed block.
type Sink interface {
	Write(ctx context.Context, height int64, rows []Row) error
}

// ObjectWriter stores a named file.
type ObjectWriter interface {
	Name() string
	WriteObject(ctx context.Context, name string, data []byte) error
}

// FileName is the name of the changelog file of a block.
func FileName(height int64) string {
	return fmt.Sprintf("changelog-%d.parquet", height)
}

// ParquetSink writes one parquet file per block.
type ParquetSink struct {
	writer ObjectWriter
}

var _ Sink = (*ParquetSink)(nil)

func NewParquetSink(writer ObjectWriter) *ParquetSink {
	return &ParquetSink{writer: writer}
}

func (s *ParquetSink) Write(ctx context.Context, height int64, rows []Row) error {
	data, err := parquetutils.WriteAll(rows)
	if err != nil {
		return errors.Wrapf(err, "failed to encode changelog of block %d", height)
	}
	name := FileName(height)
	if err := s.writer.WriteObject(ctx, name, data); err != nil {
		return errors.Wrapf(err, "failed to write changelog of block %d", height)
	}
	logger.DebugContext(ctx, "Wrote changelog",
		slogx.String("output", s.writer.Name()),
		slogx.String("file", name),
		slogx.Int("rows", len(rows)),
	)
	return nil
}

// LocalWriter writes files into a directory, creating it when missing.
type LocalWriter struct {
	dir string
}

func NewLocalWriter(dir string) *LocalWriter {
	return &LocalWriter{dir: dir}
}

func (w *LocalWriter) Name() string {
	return "local"
}

func (w *LocalWriter) WriteObject(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errors.Wrapf(err, "can't create directory %q", w.dir)
	}
	file := filepath.Join(w.dir, name)
	// write then rename so readers never see a partial file
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "can't write %q", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, file), "can't rename %q", tmp)
}

// S3Writer uploads files under a prefix of an S3 bucket.
type S3Writer struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3Writer(client *s3.Client, bucket, prefix string) *S3Writer {
	return &S3Writer{
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 4
			u.PartSize = 10 * 1024 * 1024
		}),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (w *S3Writer) Name() string {
	return "s3"
}

func (w *S3Writer) WriteObject(ctx context.Context, name string, data []byte) error {
	key := name
	if w.prefix != "" {
		key = path.Join(w.prefix, name)
	}
	_, err := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload file for bucket %q and key %q", w.bucket, key)
	}
	return nil
}
