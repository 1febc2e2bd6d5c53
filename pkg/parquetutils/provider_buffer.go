// nolint: wrapcheck
package parquetutils

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/source"
)

var _ source.ParquetFile = (*BufferFile)(nil)

// BufferFile is an in memory parquet file, used both to write files before upload and to read them back.
type BufferFile struct {
	underlying *parquetbuffer.BufferFile
}

// NewBufferFile wraps s without copying it. A nil s starts an empty file.
func NewBufferFile(s []byte) *BufferFile {
	if s == nil {
		return &BufferFile{underlying: parquetbuffer.NewBufferFile()}
	}
	return &BufferFile{underlying: parquetbuffer.NewBufferFileFromBytesNoAlloc(s)}
}

func (bf *BufferFile) Create(string) (source.ParquetFile, error) {
	return NewBufferFile(nil), nil
}

func (bf *BufferFile) Open(string) (source.ParquetFile, error) {
	return NewBufferFile(bf.Bytes()), nil
}

func (bf *BufferFile) Seek(offset int64, whence int) (int64, error) {
	return bf.underlying.Seek(offset, whence)
}

func (bf *BufferFile) Read(p []byte) (n int, err error) {
	return bf.underlying.Read(p)
}

func (bf *BufferFile) Write(p []byte) (n int, err error) {
	return bf.underlying.Write(p)
}

func (bf *BufferFile) Close() error {
	return bf.underlying.Close()
}

func (bf *BufferFile) Bytes() []byte {
	return bf.underlying.Bytes()
}
