package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
)

// ObjectPutter is the slice of the S3 client the upload proxy needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewR2Client builds an S3 client for Cloudflare R2. endpoint overrides the
// account endpoint when set.
func NewR2Client(ctx context.Context, accountID, accessKey, secretKey, endpoint string) (*s3.Client, error) {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

type UploadResponse struct {
	URL string `json:"url"`
}

type UploadService struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	timeout   time.Duration
	now       func() time.Time
}

// NewUploadService returns a service that refuses every upload when client is nil.
func NewUploadService(client ObjectPutter, bucket, publicURL string, timeout time.Duration) *UploadService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &UploadService{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		timeout:   timeout,
		now:       time.Now,
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

func ProfilePhotoKey(userID uuid.UUID) string {
	return fmt.Sprintf("profiles/%s.jpg", userID)
}

func PostMediaKey(userID uuid.UUID, at time.Time, filename string) string {
	return fmt.Sprintf("posts/%s/%d-%s", userID, at.UnixMilli(), SanitizeFilename(filename))
}

func (s *UploadService) authorize(sess session.Session, ownerID string) (uuid.UUID, error) {
	if s.client == nil {
		return uuid.Nil, ErrUploadsDisabled
	}
	owner, err := parseUserID(ownerID, "userId")
	if err != nil {
		return uuid.Nil, err
	}
	if owner != sess.UserID {
		return uuid.Nil, ErrUploadForbidden
	}
	return owner, nil
}

func (s *UploadService) UploadProfilePhoto(ctx context.Context, sess session.Session, ownerID string, body io.Reader, size int64, contentType string) (*UploadResponse, error) {
	owner, err := s.authorize(sess, ownerID)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, "profile_photo", ProfilePhotoKey(owner), body, size, contentType)
}

func (s *UploadService) UploadPostMedia(ctx context.Context, sess session.Session, ownerID, filename string, body io.Reader, size int64, contentType string) (*UploadResponse, error) {
	owner, err := s.authorize(sess, ownerID)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, "post_media", PostMediaKey(owner, s.now(), filename), body, size, contentType)
}

// put runs PutObject under the watchdog. When the deadline passes the caller
// gets ErrUploadTimeout right away and the SDK call is cancelled through ctx.
func (s *UploadService) put(ctx context.Context, kind, key string, body io.Reader, size int64, contentType string) (*UploadResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	log := logging.Log.WithFields(logrus.Fields{"kind": kind, "key": key})

	done := make(chan error, 1)
	go func() {
		_, err := s.client.PutObject(ctx, input)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				metrics.Uploads.WithLabelValues(kind, "timeout").Inc()
				return nil, ErrUploadTimeout
			}
			metrics.Uploads.WithLabelValues(kind, "error").Inc()
			log.WithError(err).Error("Upload: PutObject failed")
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.Uploads.WithLabelValues(kind, "cancelled").Inc()
			return nil, ctx.Err()
		}
		metrics.Uploads.WithLabelValues(kind, "timeout").Inc()
		log.Warn("Upload: watchdog deadline reached")
		return nil, ErrUploadTimeout
	}

	metrics.Uploads.WithLabelValues(kind, "ok").Inc()
	log.Info("Upload: stored object")
	return &UploadResponse{URL: s.publicURL + "/" + key}, nil
}
