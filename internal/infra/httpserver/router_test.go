package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	appdocs "github.com/bryanwahyu/comms-analyzer/internal/application/documents"
	"github.com/bryanwahyu/comms-analyzer/internal/common"
	"github.com/bryanwahyu/comms-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/comms-analyzer/internal/domain/document"
	"github.com/bryanwahyu/comms-analyzer/internal/logger"
	"github.com/bryanwahyu/comms-analyzer/internal/middleware"
)

type fakeAnalyzer struct {
	err   error
	texts []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (*analysis.Report, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Report{
		ID:         "r-1",
		AnalyzedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		Characters: len(text),
		Result: analysis.Result{
			OverallScore:       72,
			ClarityReadability: analysis.ClarityReadability{Score: 88, ReadingLevel: "High School", Notes: []string{}},
			AmbiguityPrecision: analysis.AmbiguityPrecision{AmbiguityScore: 40, AmbiguousPhrases: []analysis.AmbiguousPhrase{}},
		},
	}, nil
}

// stubPorts backs a real documents.Service without any network.
type stubPorts struct {
	text    string
	credErr error
	calls   int
}

func (s *stubPorts) Issue(ctx context.Context, name string) (document.Credentials, error) {
	s.calls++
	if s.credErr != nil {
		return document.Credentials{}, s.credErr
	}
	return document.Credentials{UploadURL: "https://blob.example/" + name + "?w", ReadURL: "https://blob.example/" + name + "?r"}, nil
}

func (s *stubPorts) Upload(ctx context.Context, url string, f document.File) error {
	s.calls++
	return nil
}

func (s *stubPorts) Extract(ctx context.Context, url string) (string, error) {
	s.calls++
	return s.text, nil
}

func newTestRouter(a Analyzer, ports *stubPorts, opt Options) http.Handler {
	svc := &appdocs.Service{
		Policy:      document.DefaultPolicy(),
		Credentials: ports,
		Uploader:    ports,
		Extractor:   ports,
		Log:         logger.Discard(),
	}
	opt.Log = logger.Discard()
	return NewRouter(a, svc, opt)
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, h http.Handler, path, name, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAnalyze_OK(t *testing.T) {
	a := &fakeAnalyzer{}
	h := newTestRouter(a, &stubPorts{}, Options{MaxTextChars: 100})

	rec := postJSON(h, "/v1/analyze", `{"text":"We need to cut costs."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Report    analysis.Report    `json:"report"`
		Dashboard analysis.Dashboard `json:"dashboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.Result.OverallScore != 72 || len(resp.Dashboard.Cards) == 0 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Dashboard.Cards[0].Band != analysis.BandFair {
		t.Errorf("overall band = %q, want fair", resp.Dashboard.Cards[0].Band)
	}
	if len(a.texts) != 1 || a.texts[0] != "We need to cut costs." {
		t.Errorf("analyzer got %q", a.texts)
	}
}

func TestAnalyze_TextTooLong(t *testing.T) {
	a := &fakeAnalyzer{}
	h := newTestRouter(a, &stubPorts{}, Options{MaxTextChars: 10})

	rec := postJSON(h, "/v1/analyze", `{"text":"`+strings.Repeat("a", 11)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "text_too_long" {
		t.Errorf("error code = %q", body.Error)
	}
	if len(a.texts) != 0 {
		t.Errorf("analyzer called for oversize text")
	}
}

func TestAnalyze_BadJSON(t *testing.T) {
	rec := postJSON(newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{}), "/v1/analyze", `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&common.AppError{Kind: analysis.ErrEmptyText, Step: "analysis"}, http.StatusBadRequest, "empty_text"},
		{&common.AppError{Kind: analysis.ErrRequest, Step: "analysis", StatusCode: 500}, http.StatusBadGateway, "request_failed"},
		{&common.AppError{Kind: analysis.ErrRequest, Step: "analysis", StatusCode: 429, Cause: analysis.ErrQuotaExceeded}, http.StatusTooManyRequests, "quota_exceeded"},
		{&common.AppError{Kind: analysis.ErrEmptyReply, Step: "analysis"}, http.StatusBadGateway, "empty_reply"},
		{&common.AppError{Kind: analysis.ErrMalformedResponse, Step: "analysis"}, http.StatusBadGateway, "malformed_response"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := newTestRouter(&fakeAnalyzer{err: tt.err}, &stubPorts{}, Options{})
			rec := postJSON(h, "/v1/analyze", `{"text":"hi"}`)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body.Error != tt.code {
				t.Errorf("code = %q, want %q", body.Error, tt.code)
			}
			var appErr *common.AppError
			if errors.As(tt.err, &appErr) && body.Step != appErr.Step {
				t.Errorf("step = %q, want %q", body.Step, appErr.Step)
			}
		})
	}
}

func TestDocuments_Extract(t *testing.T) {
	long := strings.Repeat("é", 600)
	ports := &stubPorts{text: long}
	h := newTestRouter(&fakeAnalyzer{}, ports, Options{})

	rec := postFile(t, h, "/v1/documents", "memo.pdf", document.MediaTypePDF, []byte("%PDF-1.7"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		FileName   string `json:"file_name"`
		SizeBytes  int64  `json:"size_bytes"`
		Characters int    `json:"characters"`
		Text       string `json:"text"`
		Preview    string `json:"preview"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FileName != "memo.pdf" || resp.SizeBytes != 8 || resp.Characters != 600 || resp.Text != long {
		t.Errorf("response = %+v", resp)
	}
	if resp.Preview != strings.Repeat("é", 500)+"..." {
		t.Errorf("preview has %d runes", len([]rune(resp.Preview)))
	}
	if ports.calls != 3 {
		t.Errorf("remote calls = %d, want 3", ports.calls)
	}
}

func TestDocuments_ExtractAndAnalyze(t *testing.T) {
	a := &fakeAnalyzer{}
	h := newTestRouter(a, &stubPorts{text: "We need to cut costs."}, Options{})

	rec := postFile(t, h, "/v1/documents/analyze", "memo.docx", "", []byte("PK"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]json.RawMessage
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	for _, k := range []string{"document", "report", "dashboard"} {
		if _, ok := resp[k]; !ok {
			t.Errorf("response missing %q", k)
		}
	}
	if len(a.texts) != 1 || a.texts[0] != "We need to cut costs." {
		t.Errorf("analyzer got %q", a.texts)
	}
}

func TestDocuments_Failures(t *testing.T) {
	tests := []struct {
		name        string
		ports       *stubPorts
		fileName    string
		contentType string
		content     []byte
		status      int
		code        string
		calls       int
	}{
		{"wrong type", &stubPorts{text: "x"}, "notes.txt", "text/plain", []byte("hi"), http.StatusUnsupportedMediaType, "unsupported_type", 0},
		{"over policy", &stubPorts{text: "x"}, "big.pdf", document.MediaTypePDF, make([]byte, document.DefaultMaxBytes+1), http.StatusRequestEntityTooLarge, "file_too_large", 0},
		{"empty content", &stubPorts{text: " \n "}, "a.pdf", document.MediaTypePDF, []byte("x"), http.StatusUnprocessableEntity, "empty_content", 3},
		{"credential", &stubPorts{credErr: &common.HTTPStatusError{StatusCode: 500, Body: "boom"}}, "a.pdf", document.MediaTypePDF, []byte("x"), http.StatusBadGateway, "credential_failed", 1},
		{"dot name", &stubPorts{text: "x"}, "..", document.MediaTypePDF, []byte("x"), http.StatusBadRequest, "bad_request", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakeAnalyzer{}, tt.ports, Options{})
			rec := postFile(t, h, "/v1/documents", tt.fileName, tt.contentType, tt.content)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Error != tt.code {
				t.Errorf("code = %q, want %q", body.Error, tt.code)
			}
			if tt.ports.calls != tt.calls {
				t.Errorf("remote calls = %d, want %d", tt.ports.calls, tt.calls)
			}
		})
	}
}

func TestDocuments_BodyOverLimit(t *testing.T) {
	ports := &stubPorts{text: "x"}
	h := newTestRouter(&fakeAnalyzer{}, ports, Options{MaxUploadBytes: 1024})

	rec := postFile(t, h, "/v1/documents", "a.pdf", document.MediaTypePDF, make([]byte, 2<<20))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (%s)", rec.Code, rec.Body.String())
	}
	if ports.calls != 0 {
		t.Errorf("remote calls = %d, want 0", ports.calls)
	}
}

func TestDocuments_MissingFile(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCredentials_Route(t *testing.T) {
	without := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{})
	if rec := postJSON(without, "/v1/credentials", `{"fileName":"a.pdf"}`); rec.Code == http.StatusOK {
		t.Errorf("credentials served without an issuer")
	}

	issuer := &stubPorts{}
	with := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{Issuer: issuer})
	rec := postJSON(with, "/v1/credentials", `{"fileName":"a.pdf"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var creds document.Credentials
	if err := json.Unmarshal(rec.Body.Bytes(), &creds); err != nil || creds.UploadURL == "" || creds.ReadURL == "" {
		t.Errorf("credentials = %s", rec.Body.String())
	}

	if rec := postJSON(with, "/v1/credentials", `{"fileName":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", rec.Code)
	}
}

func TestSamples(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/v1/samples", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body struct {
		Samples []string `json:"samples"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Samples) != 3 {
		t.Errorf("samples = %s", rec.Body.String())
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{CORSOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short", 500); got != "short" {
		t.Errorf("preview(short) = %q", got)
	}
	if got := preview("abcdef", 3); got != "abc..." {
		t.Errorf("preview(abcdef, 3) = %q", got)
	}
}

func TestReadiness_UsesHealthCheckers(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, &stubPorts{}, Options{
		Health: map[string]middleware.HealthChecker{
			"minio": middleware.CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
	})
	for _, path := range []string{"/healthz/ready", "/health"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", path, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz/live status = %d, want 200", rec.Code)
	}
}
