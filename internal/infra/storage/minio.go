package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
)

const defaultExpiry = 15 * time.Minute

type Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	Prefix       string
	Expiry       time.Duration
	EnsureBucket bool
}

// Store issues presigned S3 URLs for documents staged in a MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	prefix     string
	expiry     time.Duration
}

var _ domain.CredentialIssuer = (*Store)(nil)

// New connects to MinIO and, when asked, makes sure the bucket exists.
func New(ctx context.Context, opt Options) (*Store, error) {
	cli, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.UseSSL,
		Region: opt.Region,
	})
	if err != nil {
		return nil, err
	}

	if opt.EnsureBucket {
		exists, err := cli.BucketExists(ctx, opt.Bucket)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := cli.MakeBucket(ctx, opt.Bucket, minio.MakeBucketOptions{Region: opt.Region}); err != nil {
				return nil, err
			}
		}
	}

	return newWithClient(cli, opt), nil
}

func newWithClient(cli *minio.Client, opt Options) *Store {
	expiry := opt.Expiry
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return &Store{
		client:     cli,
		bucketName: opt.Bucket,
		prefix:     strings.Trim(opt.Prefix, "/"),
		expiry:     expiry,
	}
}

// Issue reserves a fresh object key for fileName and returns a presigned
// PUT URL for it along with a presigned GET URL for the same object.
func (s *Store) Issue(ctx context.Context, fileName string) (domain.Credentials, error) {
	key := s.objectKey(fileName)

	put, err := s.client.PresignedPutObject(ctx, s.bucketName, key, s.expiry)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("presign put %s: %w", key, err)
	}
	get, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, url.Values{})
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("presign get %s: %w", key, err)
	}
	return domain.Credentials{UploadURL: put.String(), ReadURL: get.String()}, nil
}

// objectKey keeps only the base name so a client-supplied path can never
// escape the prefix.
func (s *Store) objectKey(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "document"
	}
	return path.Join(s.prefix, uuid.NewString()+"-"+base)
}

// Check reports whether the bucket is reachable.
func (s *Store) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("bucket " + s.bucketName + " does not exist")
	}
	return nil
}

func (s *Store) Name() string { return "minio" }
