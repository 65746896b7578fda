package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophshop/internal/netx"
)

// MaxAvatarSize is the exclusive upper bound of an avatar image in bytes.
const MaxAvatarSize = 2 << 20

var (
	ErrAvatarType     = errors.New("please select an image file (JPEG or PNG)")
	ErrAvatarTooLarge = errors.New("image size must be less than 2MB")
	ErrAvatarEmpty    = errors.New("image is empty")
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToPresignedURL
)

type avatarUpload struct {
	ContentType string `validate:"oneof=image/jpeg image/png"`
	Size        int    `validate:"gt=0,lt=2097152"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateAvatar accepts JPEG or PNG images smaller than MaxAvatarSize.
func ValidateAvatar(contentType string, data []byte) error {
	err := validate.Struct(avatarUpload{ContentType: contentType, Size: len(data)})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	switch f := verrs[0]; {
	case f.Field() == "ContentType":
		return ErrAvatarType
	case f.Tag() == "gt":
		return ErrAvatarEmpty
	default:
		return ErrAvatarTooLarge
	}
}

// DetectContentType sniffs the image type of data.
func DetectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// AvatarStore turns an uploaded image into the URL kept on the account.
type AvatarStore interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}

// DataURLAvatarStore inlines the image as a base64 data URL.
type DataURLAvatarStore struct{}

func (DataURLAvatarStore) Put(_ context.Context, contentType string, data []byte) (string, error) {
	if err := ValidateAvatar(contentType, data); err != nil {
		return "", err
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3AvatarStore uploads avatars to an S3-compatible bucket through a
// presigned PUT and returns the path-style object URL.
type S3AvatarStore struct {
	cfg  S3Config
	http *http.Client
	now  func() time.Time
}

func NewS3AvatarStore(cfg S3Config, httpClient *http.Client) *S3AvatarStore {
	return &S3AvatarStore{cfg: cfg, http: httpClient, now: time.Now}
}

func (s *S3AvatarStore) storageKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("avatars/%d/%02d/%v", d.Year(), d.Month(), uuid.New())
}

func (s *S3AvatarStore) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *S3AvatarStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	if err := ValidateAvatar(contentType, data); err != nil {
		return "", err
	}

	pc, err := s.presignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 config: %w", err)
	}

	key := s.storageKey()
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign avatar upload: %w", err)
	}

	if err := uploadToPresignedURL(ctx, s.http, req.URL, contentType, data); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *S3AvatarStore) objectURL(key string) string {
	endpoint := strings.TrimRight(s.cfg.BaseEndpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", s.cfg.Region)
	}
	return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, key)
}
