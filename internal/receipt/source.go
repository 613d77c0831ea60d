package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// MaxImageBytes bounds how much of an image is read.
const MaxImageBytes = 20 << 20

// ObjectReader opens a bucket object for reading.
type ObjectReader interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// GCSReader reads objects with a Cloud Storage client.
type GCSReader struct {
	client *storage.Client
}

func NewGCSReader(ctx context.Context) (*GCSReader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSReader{client: client}, nil
}

func (g *GCSReader) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	return r, nil
}

func (g *GCSReader) Close() error {
	return g.client.Close()
}

// Source loads receipt images from local paths or gs://bucket/object URIs.
type Source struct {
	objects ObjectReader
}

// NewSource accepts a nil ObjectReader; gs:// URIs then fail.
func NewSource(objects ObjectReader) *Source {
	return &Source{objects: objects}
}

// Load returns the image bytes and their MIME type.
func (s *Source) Load(ctx context.Context, ref string) ([]byte, string, error) {
	var (
		data []byte
		err  error
	)
	if bucket, object, ok := ParseGCSURI(ref); ok {
		data, err = s.loadObject(ctx, bucket, object)
	} else {
		data, err = readLimited(ref)
	}
	if err != nil {
		return nil, "", err
	}
	return data, detectMIME(ref, data), nil
}

func (s *Source) loadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	if s.objects == nil {
		return nil, errors.New("cloud storage is not configured")
	}
	r, err := s.objects.NewReader(ctx, bucket, object)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/path/to/object.
func ParseGCSURI(uri string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(uri, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

func detectMIME(ref string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(ref))); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
