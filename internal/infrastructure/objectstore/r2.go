package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the account endpoint, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Configured reports whether downloads can be attempted.
func (c R2Config) Configured() bool {
	return strings.TrimSpace(c.Bucket) != "" &&
		(strings.TrimSpace(c.AccountID) != "" || strings.TrimSpace(c.Endpoint) != "")
}

// R2Store reads demo objects from a Cloudflare R2 bucket over the S3 API.
type R2Store struct {
	client *s3.Client
	bucket string
	logger *logging.Logger
}

func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("r2 bucket and account id are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", strings.TrimSpace(cfg.AccountID))
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(cfg.HTTPClient))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Store{
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		logger: logger.Named("r2"),
	}, nil
}

// Download streams the object at key into dst.
func (s *R2Store) Download(ctx context.Context, key string, dst io.Writer) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissingObject(err) {
			return 0, fmt.Errorf("%w: demo object %q", usecase.ErrNotFound, key)
		}
		s.logger.WarnContext(ctx, "r2 get object failed", "key", key, "error", err)
		return 0, fmt.Errorf("get r2 object: %w", err)
	}
	defer out.Body.Close()

	n, err := io.Copy(dst, out.Body)
	if err != nil {
		return n, fmt.Errorf("read r2 object: %w", err)
	}
	return n, nil
}

func isMissingObject(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
