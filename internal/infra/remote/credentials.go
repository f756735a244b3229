package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
)

// CredentialClient asks a credential-issuing endpoint for an upload/read
// URL pair.
type CredentialClient struct {
	endpoint string
	http     *http.Client
	log      logrus.FieldLogger
}

var _ domain.CredentialIssuer = (*CredentialClient)(nil)

func NewCredentialClient(endpoint string, client *http.Client, log logrus.FieldLogger) *CredentialClient {
	return &CredentialClient{endpoint: endpoint, http: client, log: log}
}

func (c *CredentialClient) Issue(ctx context.Context, fileName string) (domain.Credentials, error) {
	var out domain.Credentials
	if err := postJSON(ctx, c.http, c.endpoint, map[string]string{"fileName": fileName}, &out, c.log); err != nil {
		return domain.Credentials{}, err
	}
	if err := checkURL("uploadUrl", out.UploadURL); err != nil {
		return domain.Credentials{}, err
	}
	if err := checkURL("readUrl", out.ReadURL); err != nil {
		return domain.Credentials{}, err
	}
	return out, nil
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("response is missing %s", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(field + " must be an absolute http(s) URL")
	}
	return nil
}
