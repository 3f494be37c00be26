// Package guide hands out time-limited download links for the lead-magnet PDF.
package guide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultTTL is how long a download link stays valid when none is configured.
const DefaultTTL = 24 * time.Hour

// Presigner is the subset of s3.PresignClient used here.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Linker produces presigned GET URLs for one guide object.
type Linker struct {
	presigner Presigner
	bucket    string
	key       string
	ttl       time.Duration
	filename  string
}

// NewLinker returns nil when bucket is empty, which disables download links.
func NewLinker(p Presigner, bucket, key string, ttl time.Duration) *Linker {
	if bucket == "" {
		return nil
	}
	if p == nil {
		panic("guide: presigner required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Linker{
		presigner: p,
		bucket:    bucket,
		key:       key,
		ttl:       ttl,
		filename:  "baja-build-guide.pdf",
	}
}

// Link returns a presigned URL and the time it stops working.
func (l *Linker) Link(ctx context.Context) (string, time.Time, error) {
	if l == nil {
		return "", time.Time{}, errors.New("guide: linker not configured")
	}
	req, err := l.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(l.bucket),
		Key:                        aws.String(l.key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", l.filename)),
		ResponseContentType:        aws.String("application/pdf"),
	}, func(o *s3.PresignOptions) { o.Expires = l.ttl })
	if err != nil {
		return "", time.Time{}, fmt.Errorf("guide: presign get: %w", err)
	}
	return req.URL, time.Now().Add(l.ttl), nil
}
