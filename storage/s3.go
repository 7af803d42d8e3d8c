package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// S3Backend stores attestations in Amazon S3 or a compatible service.
type S3Backend struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Backend creates an S3 backend. Static credentials are used when
// accessKey and secretKey are set, otherwise the default AWS credential
// chain applies. A custom endpoint switches to path-style addressing, which
// is what most S3-compatible services expect.
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Backend{
		client:      s3.New(sess),
		bucketName:  bucketName,
		prefix:      strings.Trim(prefix, "/"),
		log:         log.With("backend", "s3", "bucket", bucketName),
		locationURI: uri,
	}, nil
}

func (b *S3Backend) Fetch(ctx context.Context, digest common.Hash) ([]byte, error) {
	key := b.objectKey(digest)
	log := b.log.With("key", key)

	obj, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	switch {
	case isS3NotFound(err):
		log.Debug("Attestation not in bucket")
		return nil, interfaces.ErrAttestationNotFound
	case err != nil:
		log.Error("S3 GetObject failed", "err", err)
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: reading body: %w", key, err)
	}
	log.Debug("Fetched attestation", "size", len(data))
	return data, nil
}

func (b *S3Backend) Store(ctx context.Context, digest common.Hash, data []byte) error {
	key := b.objectKey(digest)

	if _, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	}); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}

	b.log.Debug("Stored attestation", "key", key, "size", len(data))
	return nil
}

// Available reports whether the bucket exists and is reachable with the
// configured credentials.
func (b *S3Backend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucketName)}); err != nil {
		b.log.Warn("S3 bucket unavailable", "err", err)
		return false
	}
	return true
}

func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey(digest common.Hash) string {
	return path.Join(b.prefix, attestationsDir, fmt.Sprintf("%x", digest[:]))
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey
}
