package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
)

// BlobTypeHeader tells Azure-style blob storage what kind of blob a PUT creates.
const BlobTypeHeader = "x-ms-blob-type"

// BlobUploader PUTs raw file bytes to a presigned upload URL.
type BlobUploader struct {
	http *http.Client
	log  logrus.FieldLogger
}

var _ domain.Uploader = (*BlobUploader)(nil)

func NewBlobUploader(client *http.Client, log logrus.FieldLogger) *BlobUploader {
	return &BlobUploader{http: client, log: log}
}

func (u *BlobUploader) Upload(ctx context.Context, uploadURL string, f domain.File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(f.Content))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(BlobTypeHeader, "BlockBlob")
	ct := f.ContentType
	if ct == "" {
		ct = f.MediaType()
	}
	req.Header.Set("Content-Type", ct)

	_, err = do(u.http, req, u.log)
	return err
}
