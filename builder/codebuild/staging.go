/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package codebuild

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kilnworks/kiln/builder"
	"github.com/kilnworks/kiln/logging"
	"github.com/kilnworks/kiln/pkg/errors"
)

// S3Stager uploads build assets to an S3 staging bucket and hands back the
// fetch commands the build job uses to pull them down. An S3Stager is not
// safe for concurrent use; give each build variant its own instance.
type S3Stager struct {
	clients *AWSClients
	bucket  string

	bucketChecked bool
}

var _ builder.AssetStager = (*S3Stager)(nil)

// NewS3Stager creates a stager that uploads to the named bucket.
func NewS3Stager(clients *AWSClients, bucket string) *S3Stager {
	return &S3Stager{clients: clients, bucket: bucket}
}

// Stage uploads the asset at source under the given key. Directories are
// zipped deterministically before upload so re-staging unchanged content
// produces identical objects.
func (s *S3Stager) Stage(ctx context.Context, source, key, localPath string) (*builder.StagedAsset, error) {
	if s.bucket == "" {
		return nil, builder.NewConfigError("staging bucket is not configured")
	}
	if err := s.checkBucket(ctx); err != nil {
		return nil, err
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, builder.NewConfigError("asset source %s is not readable: %v", source, err)
	}

	var body io.Reader
	switch {
	case info.Mode().IsRegular():
		f, openErr := os.Open(source)
		if openErr != nil {
			return nil, errors.Wrap("open asset", source, openErr)
		}
		defer f.Close()
		body = f
	case info.IsDir():
		archive, zipErr := zipDirectory(source)
		if zipErr != nil {
			return nil, errors.Wrap("archive asset directory", source, zipErr)
		}
		body = bytes.NewReader(archive)
	default:
		return nil, builder.NewConfigError("asset source %s is neither a file nor a directory", source)
	}

	_, err = s.clients.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return nil, errors.Wrap("upload asset", key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	logging.DebugContext(ctx, "Staged %s to %s", source, uri)
	return &builder.StagedAsset{
		URI:          uri,
		FetchCommand: fmt.Sprintf("aws s3 cp %q %q", uri, localPath),
		LocalPath:    localPath,
	}, nil
}

func (s *S3Stager) checkBucket(ctx context.Context) error {
	if s.bucketChecked {
		return nil
	}
	_, err := s.clients.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return builder.NewConfigError("staging bucket %s is not accessible: %v", s.bucket, err)
	}
	s.bucketChecked = true
	return nil
}

// zipDirectory archives a directory with sorted entries and zeroed
// timestamps so the same content always yields the same bytes.
func zipDirectory(dir string) ([]byte, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return nil, err
		}
		header := &zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		}
		entry, err := w.CreateHeader(header)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(entry, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
