package store

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectArchive stores reports in an S3-compatible bucket.
type ObjectArchive struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectArchive builds a minio client for the configured endpoint.
// The endpoint may carry an http:// or https:// scheme; TLS is assumed
// when no scheme is given.
func NewObjectArchive(cfg ObjectStoreConfig) (*ObjectArchive, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("store: object endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store: object bucket is required")
	}

	secure := true
	if strings.HasPrefix(endpoint, "http://") {
		secure = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("store: create object client: %w", err)
	}

	return &ObjectArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Bootstrap ensures the bucket exists.
func (a *ObjectArchive) Bootstrap(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("store: check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("store: create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Location describes the bucket and prefix for logs.
func (a *ObjectArchive) Location() string {
	if a.prefix == "" {
		return a.bucket
	}
	return a.bucket + "/" + a.prefix
}

func (a *ObjectArchive) Put(ctx context.Context, report Report) (string, error) {
	if err := validateReport(report); err != nil {
		return "", err
	}

	base := BaseName(report.Window, reportCreatedAt(report))
	if len(report.HTML) > 0 {
		if err := a.putObject(ctx, base+".html", report.HTML, "text/html; charset=utf-8"); err != nil {
			return "", err
		}
	}
	if len(report.JSON) > 0 {
		if err := a.putObject(ctx, base+".json", report.JSON, "application/json"); err != nil {
			return "", err
		}
	}
	return base, nil
}

func (a *ObjectArchive) putObject(ctx context.Context, name string, data []byte, contentType string) error {
	key := a.objectKey(name)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("store: upload %s: %w", key, err)
	}
	return nil
}

func (a *ObjectArchive) List(ctx context.Context) ([]ReportInfo, error) {
	listPrefix := ""
	if a.prefix != "" {
		listPrefix = a.prefix + "/"
	}

	var infos []ReportInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("store: list objects: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, listPrefix)
		if !IsReportFile(name) {
			continue
		}
		infos = append(infos, ReportInfo{
			Name:    name,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}

	sortReportInfos(infos)
	return infos, nil
}

func (a *ObjectArchive) Close() error {
	return nil
}

func (a *ObjectArchive) objectKey(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}
