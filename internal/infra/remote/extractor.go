package remote

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
)

// ExtractClient calls the document text-extraction endpoint.
type ExtractClient struct {
	endpoint string
	http     *http.Client
	log      logrus.FieldLogger
}

var _ domain.Extractor = (*ExtractClient)(nil)

func NewExtractClient(endpoint string, client *http.Client, log logrus.FieldLogger) *ExtractClient {
	return &ExtractClient{endpoint: endpoint, http: client, log: log}
}

type extractResponse struct {
	ExtractedText string `json:"extractedText"`
	Content       string `json:"content"`
}

// Extract returns extractedText when present and non-empty, otherwise content.
func (c *ExtractClient) Extract(ctx context.Context, readURL string) (string, error) {
	var out extractResponse
	if err := postJSON(ctx, c.http, c.endpoint, map[string]string{"readUrl": readURL}, &out, c.log); err != nil {
		return "", err
	}
	if out.ExtractedText != "" {
		return out.ExtractedText, nil
	}
	return out.Content, nil
}
