// Package archive uploads exported transfer plans to S3 for retention.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Config holds the S3 target. AccessKey/SecretKey are optional; when
// empty the default credential chain is used.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
}

// Uploader pushes plan CSVs to the configured bucket.
type Uploader struct {
	uploader *manager.Uploader
	cfg      Config
	log      zerolog.Logger
}

// New builds an uploader from the AWS config chain.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Uploader{
		uploader: manager.NewUploader(s3.NewFromConfig(awsCfg)),
		cfg:      cfg,
		log:      log.With().Str("component", "archive").Logger(),
	}, nil
}

// UploadPlan stores the file under <prefix>/<date>/<runID>.csv and
// returns the object key.
func (u *Uploader) UploadPlan(ctx context.Context, runID, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open plan file: %w", err)
	}
	defer f.Close()

	key := path.Join(u.cfg.Prefix, time.Now().UTC().Format("2006-01-02"), runID+".csv")
	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &u.cfg.Bucket,
		Key:    &key,
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("upload plan %s: %w", runID, err)
	}

	u.log.Info().Str("bucket", u.cfg.Bucket).Str("key", key).Msg("Plan archived")
	return key, nil
}
