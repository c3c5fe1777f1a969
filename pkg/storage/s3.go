package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config holds S3 client configuration. Endpoint is optional and enables
// S3-compatible stores (path-style addressing is used when set).
type S3Config struct {
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	RecordingsBucket     string
	PresignExpireMinutes int
}

// Object is a stored object summary, as returned by a bucket listing.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// S3 provides the object storage operations the recording controller needs:
// bucket listing for artifact resolution, presigned and streamed downloads.
type S3 struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

// NewS3 creates an S3 client from static credentials, falling back to the
// default credential chain when none are configured.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	} else {
		logger.Warn("S3 client using default credential chain (S3_KEY_ID/S3_KEY_SECRET not set)")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Info("S3 client ready",
		zap.String("region", cfg.Region),
		zap.String("bucket", cfg.RecordingsBucket),
	)
	return &S3{client: client, cfg: cfg, logger: logger}, nil
}

// RecordingsBucket returns the configured recordings bucket name.
func (s *S3) RecordingsBucket() string { return s.cfg.RecordingsBucket }

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// ListObjects lists all objects in the bucket, following continuation tokens.
// Recording keys carry a leading timestamp, so there is no useful prefix to
// narrow the listing; callers filter by key suffix.
func (s *S3) ListObjects(ctx context.Context, bucket string) ([]Object, error) {
	var out []Object
	var token *string
	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range resp.Contents {
			o := Object{}
			if obj.Key != nil {
				o.Key = *obj.Key
			}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			if obj.Size != nil {
				o.Size = *obj.Size
			}
			out = append(out, o)
		}
		if resp.IsTruncated == nil || !*resp.IsTruncated {
			return out, nil
		}
		token = resp.NextContinuationToken
	}
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for download.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// PublicObjectURL returns the public URL for an object (no signing).
func (s *S3) PublicObjectURL(bucket, key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.cfg.Endpoint, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.cfg.Region, key)
}

// GetObjectStream returns the object body and content type for streaming
// (download proxy). Caller must close the body.
func (s *S3) GetObjectStream(ctx context.Context, bucket, key string) (body io.ReadCloser, contentType string, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", err
	}
	ct := ""
	if out.ContentType != nil {
		ct = *out.ContentType
	}
	return out.Body, ct, nil
}
