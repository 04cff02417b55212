package derive

import (
	"context"
	"io"
	"os"
)

// Source opens the occurrence dataset for one streaming pass
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the dataset from a file on disk
type FileSource struct {
	Path string
}

// Open implements Source
func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.Path)
}

// String returns the dataset path
func (f FileSource) String() string {
	return f.Path
}
