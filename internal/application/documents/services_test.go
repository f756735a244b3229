package documents

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bryanwahyu/comms-analyzer/internal/common"
	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
	"github.com/bryanwahyu/comms-analyzer/internal/logger"
)

// recorder implements all three ports and logs every call in order.
type recorder struct {
	calls []string

	creds      domain.Credentials
	credErr    error
	uploadErr  error
	text       string
	extractErr error

	uploadedTo   string
	uploaded     domain.File
	extractedURL string
}

func (r *recorder) Issue(ctx context.Context, fileName string) (domain.Credentials, error) {
	r.calls = append(r.calls, "credential:"+fileName)
	return r.creds, r.credErr
}

func (r *recorder) Upload(ctx context.Context, uploadURL string, f domain.File) error {
	r.calls = append(r.calls, "upload")
	r.uploadedTo, r.uploaded = uploadURL, f
	return r.uploadErr
}

func (r *recorder) Extract(ctx context.Context, readURL string) (string, error) {
	r.calls = append(r.calls, "extract")
	r.extractedURL = readURL
	return r.text, r.extractErr
}

func newService(r *recorder) *Service {
	return &Service{
		Policy:      domain.DefaultPolicy(),
		Credentials: r,
		Uploader:    r,
		Extractor:   r,
		Log:         logger.Discard(),
	}
}

func pdf() domain.File {
	return domain.File{Name: "memo.pdf", ContentType: domain.MediaTypePDF, Content: []byte("%PDF-1.7 ...")}
}

func TestService_Extract_ThreeCallsInOrder(t *testing.T) {
	r := &recorder{
		creds: domain.Credentials{UploadURL: "https://blob.example/up?sig=w", ReadURL: "https://blob.example/up?sig=r"},
		text:  "Dear team, we need to cut costs.",
	}

	got, err := newService(r).Extract(context.Background(), pdf())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"credential:memo.pdf", "upload", "extract"}
	if len(r.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, r.calls[i], want[i])
		}
	}
	if r.uploadedTo != r.creds.UploadURL || r.extractedURL != r.creds.ReadURL {
		t.Errorf("urls not threaded through: upload=%q extract=%q", r.uploadedTo, r.extractedURL)
	}
	if !bytes.Equal(r.uploaded.Content, pdf().Content) {
		t.Errorf("uploaded bytes differ")
	}
	if got.Text != r.text || got.Characters != len(r.text) || got.FileName != "memo.pdf" {
		t.Errorf("Extract() = %+v", got)
	}
}

func TestService_Extract_AdmissionMakesNoCalls(t *testing.T) {
	tests := []struct {
		name  string
		file  domain.File
		cause error
	}{
		{"text file", domain.File{Name: "notes.txt", ContentType: "text/plain", Content: []byte("hi")}, domain.ErrUnsupportedType},
		{"image", domain.File{Name: "scan.png", ContentType: "image/png", Content: []byte{0x89}}, domain.ErrUnsupportedType},
		{"too large", domain.File{Name: "big.docx", ContentType: domain.MediaTypeDOCX, Content: make([]byte, domain.DefaultMaxBytes+1)}, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			_, err := newService(r).Extract(context.Background(), tt.file)
			if !errors.Is(err, domain.ErrAdmission) {
				t.Fatalf("error = %v, want ErrAdmission", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("error = %v, want cause %v", err, tt.cause)
			}
			if len(r.calls) != 0 {
				t.Errorf("remote calls = %v, want none", r.calls)
			}
		})
	}
}

func TestService_Extract_CredentialFailureStops(t *testing.T) {
	r := &recorder{credErr: &common.HTTPStatusError{StatusCode: 500, Status: "500 Internal Server Error", Body: "sas down"}}

	_, err := newService(r).Extract(context.Background(), pdf())

	if !errors.Is(err, domain.ErrCredential) {
		t.Fatalf("error = %v, want ErrCredential", err)
	}
	if len(r.calls) != 1 {
		t.Errorf("calls = %v, want exactly the credential call", r.calls)
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode != 500 || appErr.Detail != "500 Internal Server Error - sas down" {
		t.Errorf("AppError = %+v, want status and body", appErr)
	}
	if appErr.Step != StepCredential {
		t.Errorf("Step = %q", appErr.Step)
	}
}

func TestService_Extract_StepFailures(t *testing.T) {
	creds := domain.Credentials{UploadURL: "https://u", ReadURL: "https://r"}
	boom := &common.HTTPStatusError{StatusCode: 403, Status: "403 Forbidden"}

	tests := []struct {
		name     string
		r        *recorder
		wantKind error
		calls    int
	}{
		{"upload", &recorder{creds: creds, uploadErr: boom}, domain.ErrUpload, 2},
		{"extract", &recorder{creds: creds, extractErr: boom}, domain.ErrExtraction, 3},
		{"empty text", &recorder{creds: creds, text: ""}, domain.ErrEmptyContent, 3},
		{"whitespace text", &recorder{creds: creds, text: " \n\t "}, domain.ErrEmptyContent, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newService(tt.r).Extract(context.Background(), pdf())
			if got != nil {
				t.Errorf("Extract() = %+v, want nil", got)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("error = %v, want %v", err, tt.wantKind)
			}
			if len(tt.r.calls) != tt.calls {
				t.Errorf("calls = %v, want %d", tt.r.calls, tt.calls)
			}
		})
	}
}
