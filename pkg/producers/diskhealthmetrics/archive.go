// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package diskhealthmetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultArchiveRegion = "us-east-1"

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archive stores every collection round as one JSON object in an S3
// compatible bucket, e.g. the Ceph RGW the disks belong to.
type Archive struct {
	bucket   string
	prefix   string
	uploader uploader
	now      func() time.Time
}

// NewArchive returns nil when no bucket is configured.
func NewArchive(ctx context.Context, cfg DiskHealthMetricsConfig) (*Archive, error) {
	if cfg.ArchiveBucket == "" {
		return nil, nil
	}
	region := cfg.ArchiveRegion
	if region == "" {
		region = defaultArchiveRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.ArchiveAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.ArchiveAccessKey, cfg.ArchiveSecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ArchiveEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ArchiveEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Archive{
		bucket:   cfg.ArchiveBucket,
		prefix:   cfg.ArchivePrefix,
		uploader: manager.NewUploader(client),
		now:      time.Now,
	}, nil
}

func (a *Archive) key(node string) string {
	ts := a.now().UTC().Format("20060102T150405Z")
	return path.Join(a.prefix, node, fmt.Sprintf("%s-%s.json", ts, uuid.NewString()))
}

// Store uploads one round of reports under <prefix>/<node>/.
func (a *Archive) Store(ctx context.Context, node string, metrics []NormalizedSmartData) error {
	if a == nil || len(metrics) == 0 {
		return nil
	}
	body, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("error marshalling metrics to json: %w", err)
	}
	key := a.key(node)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading %s: %w", key, err)
	}
	log.Debug().Str("bucket", a.bucket).Str("key", key).Msg("archived disk health reports")
	return nil
}
