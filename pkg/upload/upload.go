// Package upload pushes run results to S3 or S3-compatible object storage.
//
// Uploads are optional and happen after validation: merged tables, the
// alignment archive, and the validation report are pushed under a
// configurable key prefix so downstream consumers never touch the
// cluster filesystem.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"
)

// Config configures the uploader connection and throughput.
type Config struct {
	// Bucket is the destination bucket. Required.
	Bucket string

	// Prefix is prepended to every uploaded key. Optional.
	Prefix string

	// Region is the bucket region. Optional; the SDK resolves it from
	// the environment or profile when empty.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores. Optional.
	Endpoint string

	// Profile is the credential profile name. Optional.
	Profile string

	// AccessKeyID and SecretAccessKey override the default credential
	// chain when both are set.
	AccessKeyID     string
	SecretAccessKey string

	// ForcePathStyle uses path-style addressing, required by some
	// S3-compatible stores.
	ForcePathStyle bool

	// RateLimit is the maximum put requests per second (0 = unlimited).
	RateLimit float64
}

// Validate checks the config for required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("upload: bucket is required")
	}
	if c.RateLimit < 0 {
		return errors.New("upload: rate_limit must be >= 0")
	}
	return nil
}

// putObjectAPI is the slice of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader pushes files and in-memory payloads to a bucket.
type Uploader struct {
	client  putObjectAPI
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// New creates an uploader with the given configuration.
//
// The uploader uses AWS SDK v2's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &UploadError{Op: "New", Bucket: cfg.Bucket, Err: err}
	}

	var s3Opts []func(*s3.Options)
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Uploader{
		client:  s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		limiter: limiter,
	}, nil
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)
		opts = append(opts, config.WithCredentialsProvider(staticCreds))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

// Key returns the full object key for a file name under the configured
// prefix.
func (u *Uploader) Key(name string) string {
	prefix := strings.TrimSuffix(u.prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Put uploads a payload under the configured prefix. The key is derived
// from name via Key.
func (u *Uploader) Put(ctx context.Context, name string, body io.Reader, contentType string) error {
	if u.limiter != nil {
		if err := u.limiter.Wait(ctx); err != nil {
			return &UploadError{Op: "Put", Bucket: u.bucket, Key: u.Key(name), Err: err}
		}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.Key(name)),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return u.wrapError("Put", u.Key(name), err)
	}
	return nil
}

// PutFile uploads a local file. The object key is the file's base name
// under the configured prefix; the content type is inferred from the
// extension.
func (u *Uploader) PutFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &UploadError{Op: "PutFile", Bucket: u.bucket, Err: err}
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	return u.Put(ctx, filepath.Base(path), f, contentType)
}

// PutFiles uploads each path in order, stopping at the first failure.
func (u *Uploader) PutFiles(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := u.PutFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// wrapError converts SDK errors into UploadErrors, surfacing the API
// error code when one is present.
func (u *Uploader) wrapError(op, key string, err error) error {
	ue := &UploadError{Op: op, Bucket: u.bucket, Key: key, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ue.Code = apiErr.ErrorCode()
	}
	return ue
}

// UploadError wraps errors from upload operations with request context.
type UploadError struct {
	Op     string // Operation that failed (e.g., "Put")
	Bucket string
	Key    string
	Code   string // Provider error code, when known
	Err    error
}

func (e *UploadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "upload: %s bucket=%s", e.Op, e.Bucket)
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%s", e.Key)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
