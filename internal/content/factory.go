package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

// New builds the content store selected by cfg.Type, decoding the
// type-specific options map.
func New(ctx context.Context, cfg config.ContentConfig, logger *slog.Logger) (docsysRepo.ContentStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		return newFilesystemStore(cfg.Options)
	case "s3":
		return newS3Store(ctx, cfg.Options, logger)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

func newFilesystemStore(options map[string]any) (*FSStore, error) {
	var opts struct {
		Path string `mapstructure:"path"`
	}
	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}
	return NewFSStore(opts.Path)
}

// S3Options are the recognised keys of content.options when type is s3.
type S3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"` // MinIO, Localstack, ...
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

func decodeS3Options(options map[string]any) (S3Options, error) {
	var opts S3Options
	if err := mapstructure.Decode(options, &opts); err != nil {
		return opts, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}
	if opts.Bucket == "" {
		return opts, fmt.Errorf("S3 content store: bucket is required")
	}
	if opts.Region == "" {
		return opts, fmt.Errorf("S3 content store: region is required")
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 10
	}
	return opts, nil
}

func newS3Store(ctx context.Context, options map[string]any, logger *slog.Logger) (*S3Store, error) {
	opts, err := decodeS3Options(options)
	if err != nil {
		return nil, err
	}

	loadOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = opts.MaxRetries
			})
		}),
	}
	// Without static keys the default credential chain applies
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	store, err := NewS3Store(ctx, S3StoreConfig{Client: client, Bucket: opts.Bucket, KeyPrefix: opts.KeyPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized", "bucket", opts.Bucket, "region", opts.Region, "prefix", opts.KeyPrefix)
	return store, nil
}
