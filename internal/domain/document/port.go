package document

import "context"

// CredentialIssuer hands out a write/read URL pair for a file name.
type CredentialIssuer interface {
	Issue(ctx context.Context, fileName string) (Credentials, error)
}

// Uploader writes the file bytes to a credentialed upload URL.
type Uploader interface {
	Upload(ctx context.Context, uploadURL string, f File) error
}

// Extractor asks the extraction service for the text of a stored file.
type Extractor interface {
	Extract(ctx context.Context, readURL string) (string, error)
}
