// Package blob stores uploaded files in S3 or an S3-compatible endpoint
// and mints the URLs clients use to fetch them.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	sc "github.com/dmitrijs2005/cloudnotes/internal/server/config"
	"github.com/google/uuid"
)

// nonceParam is added to every presigned URL. SigV4 dates have one-second
// resolution, so without it two mints in the same second are identical.
const nonceParam = "x-cn-nonce"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client, optFns ...func(*s3.PresignOptions)) *s3.PresignClient {
		return s3.NewPresignClient(c, optFns...)
	}
)

// Store is the object store used by the upload service.
type Store interface {
	// Configured reports whether credentials and bucket are usable. It
	// never performs network I/O.
	Configured() bool
	Put(ctx context.Context, obj Object) error
	PublicURL(key string) string
	PresignGet(ctx context.Context, key string) (string, error)
}

// Object is one blob to write.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Public      bool
}

// S3Store implements Store on aws-sdk-go-v2. The SDK client is built on
// first use so an unconfigured store never loads AWS configuration.
type S3Store struct {
	config *sc.Config
	now    func() time.Time

	once    sync.Once
	client  *s3.Client
	presign *s3.PresignClient
	initErr error
}

func NewS3Store(config *sc.Config) *S3Store {
	return &S3Store{config: config, now: time.Now}
}

// WithClock sets the time used as the signing time of presigned URLs.
func (s *S3Store) WithClock(now func() time.Time) *S3Store {
	s.now = now
	return s
}

func (s *S3Store) Configured() bool {
	return s.config.S3Configured()
}

func (s *S3Store) clients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	s.once.Do(func() {
		cfg, err := loadDefaultAWSConfig(ctx,
			config.WithRegion(s.config.S3Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				s.config.S3RootUser,
				s.config.S3RootPassword,
				"",
			)))
		if err != nil {
			s.initErr = err
			return
		}

		s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
			if s.config.S3BaseEndpoint != "" {
				o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			}
			o.UsePathStyle = s.config.S3UsePathStyle
		})

		s.presign = newS3PresignClient(s.client, func(o *s3.PresignOptions) {
			o.Presigner = clockPresigner{
				signer: v4.NewSigner(func(so *v4.SignerOptions) {
					so.DisableURIPathEscaping = true
				}),
				now:   s.now,
				nonce: uuid.NewString,
			}
		})
	})
	return s.client, s.presign, s.initErr
}

// Put writes obj with a public-read or private canned ACL.
func (s *S3Store) Put(ctx context.Context, obj Object) error {
	client, _, err := s.clients(ctx)
	if err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}

	acl := types.ObjectCannedACLPrivate
	if obj.Public {
		acl = types.ObjectCannedACLPublicRead
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
		ACL:    acl,
	}
	if obj.ContentType != "" {
		in.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put %s: %w", obj.Key, err)
	}
	return nil
}

// PublicURL is the stable direct URL of a public-read object.
func (s *S3Store) PublicURL(key string) string {
	escaped := escapeKey(key)
	if s.config.S3BaseEndpoint != "" {
		base := strings.TrimRight(s.config.S3BaseEndpoint, "/")
		if s.config.S3UsePathStyle {
			return fmt.Sprintf("%s/%s/%s", base, s.config.S3Bucket, escaped)
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, s.config.S3Bucket, u.Host, escaped)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.S3Region, escaped)
}

// PresignGet returns a GET URL for key valid for the configured presign
// validity. Every call signs anew and no two calls return the same URL.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	_, presign, err := s.clients(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 config: %w", err)
	}

	req, err := presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", key, err)
	}

	return req.URL, nil
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// clockPresigner signs with the store's clock instead of the SDK's and
// adds a fresh nonce to the signed query.
type clockPresigner struct {
	signer *v4.Signer
	now    func() time.Time
	nonce  func() string
}

func (p clockPresigner) PresignHTTP(
	ctx context.Context, credentials aws.Credentials, r *http.Request,
	payloadHash string, service string, region string, _ time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	q := r.URL.Query()
	q.Set(nonceParam, p.nonce())
	r.URL.RawQuery = q.Encode()

	return p.signer.PresignHTTP(ctx, credentials, r, payloadHash, service, region, p.now(), optFns...)
}
