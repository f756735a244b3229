package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appdocs "github.com/bryanwahyu/comms-analyzer/internal/application/documents"
	"github.com/bryanwahyu/comms-analyzer/internal/common"
	"github.com/bryanwahyu/comms-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/comms-analyzer/internal/domain/document"
	"github.com/bryanwahyu/comms-analyzer/internal/middleware"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

type Analyzer interface {
	Analyze(ctx context.Context, text string) (*analysis.Report, error)
}

type DocumentExtractor interface {
	Extract(ctx context.Context, f document.File) (*document.Extraction, error)
}

type Options struct {
	MaxTextChars   int
	MaxUploadBytes int64
	PreviewChars   int
	CORSOrigins    []string

	// Issuer serves POST /v1/credentials when set.
	Issuer document.CredentialIssuer
	Health map[string]middleware.HealthChecker

	RateLimiter *middleware.RateLimiter
	Log         logrus.FieldLogger
}

type Router struct {
	analyzer Analyzer
	docs     DocumentExtractor
	opt      Options
	log      logrus.FieldLogger
}

func NewRouter(analyzer Analyzer, docs DocumentExtractor, opt Options) http.Handler {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = document.DefaultMaxBytes
	}
	if opt.PreviewChars <= 0 {
		opt.PreviewChars = 500
	}
	if opt.Log == nil {
		opt.Log = logrus.StandardLogger()
	}
	if len(opt.CORSOrigins) == 0 {
		opt.CORSOrigins = []string{"*"}
	}
	r := &Router{analyzer: analyzer, docs: docs, opt: opt, log: opt.Log}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(opt.Log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opt.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if opt.RateLimiter != nil {
		mux.Use(opt.RateLimiter.Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(opt.Health))
	mux.Get("/healthz/live", middleware.LivenessHandler)
	mux.Get("/healthz/ready", middleware.ReadinessHandler(opt.Health))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/documents", r.wrap(r.handleExtract))
		rt.Post("/documents/analyze", r.wrap(r.handleExtractAndAnalyze))
		rt.Get("/samples", r.wrap(r.handleSamples))
		if opt.Issuer != nil {
			rt.Post("/credentials", r.wrap(r.handleCredentials))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, code := classify(err)
		body := errorBody{Error: code, Message: err.Error()}
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			body.Step = appErr.Step
		}
		entry := r.log.WithFields(logrus.Fields{
			"req_id": chimw.GetReqID(req.Context()),
			"status": status,
			"code":   code,
			"step":   body.Step,
		})
		if status >= 500 {
			entry.WithError(err).Error("http.handler_error")
		} else {
			entry.WithError(err).Warn("http.handler_rejected")
		}
		writeJSON(w, status, body)
	}
}

// classify maps an error onto an HTTP status and a stable error code.
// Order matters: the most specific kinds are tested first.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, document.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type"
	case errors.Is(err, document.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, analysis.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge, "text_too_long"
	case errors.Is(err, document.ErrAdmission):
		return http.StatusBadRequest, "file_rejected"
	case errors.Is(err, analysis.ErrEmptyText):
		return http.StatusBadRequest, "empty_text"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, document.ErrEmptyContent):
		return http.StatusUnprocessableEntity, "empty_content"
	case errors.Is(err, analysis.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, document.ErrCredential):
		return http.StatusBadGateway, "credential_failed"
	case errors.Is(err, document.ErrUpload):
		return http.StatusBadGateway, "upload_failed"
	case errors.Is(err, document.ErrExtraction):
		return http.StatusBadGateway, "extraction_failed"
	case errors.Is(err, analysis.ErrRequest):
		return http.StatusBadGateway, "request_failed"
	case errors.Is(err, analysis.ErrEmptyReply):
		return http.StatusBadGateway, "empty_reply"
	case errors.Is(err, analysis.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type analysisResponse struct {
	Report    *analysis.Report   `json:"report"`
	Dashboard analysis.Dashboard `json:"dashboard"`
}

// POST /v1/analyze
// Body: {"text": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody))
	if err := dec.Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if err := middleware.ValidateTextLength(body.Text, r.opt.MaxTextChars); err != nil {
		return &common.AppError{Kind: analysis.ErrTextTooLong, Step: "input", Detail: err.Error()}
	}

	resp, err := r.analyze(req.Context(), body.Text)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (r *Router) analyze(ctx context.Context, text string) (*analysisResponse, error) {
	middleware.IncrementAnalyses()
	report, err := r.analyzer.Analyze(ctx, text)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return nil, err
	}
	return &analysisResponse{Report: report, Dashboard: analysis.BuildDashboard(report.Result)}, nil
}

type documentAnalysisResponse struct {
	Document  *extractionResponse `json:"document"`
	Report    *analysis.Report    `json:"report"`
	Dashboard analysis.Dashboard  `json:"dashboard"`
}

type extractionResponse struct {
	*document.Extraction
	Preview string `json:"preview"`
}

// POST /v1/documents (multipart field "file")
func (r *Router) handleExtract(w http.ResponseWriter, req *http.Request) error {
	ex, err := r.extract(w, req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ex)
	return nil
}

// POST /v1/documents/analyze (multipart field "file")
func (r *Router) handleExtractAndAnalyze(w http.ResponseWriter, req *http.Request) error {
	ex, err := r.extract(w, req)
	if err != nil {
		return err
	}
	resp, err := r.analyze(req.Context(), ex.Text)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, documentAnalysisResponse{Document: ex, Report: resp.Report, Dashboard: resp.Dashboard})
	return nil
}

func (r *Router) extract(w http.ResponseWriter, req *http.Request) (*extractionResponse, error) {
	middleware.IncrementDocuments()
	f, err := r.readFile(w, req)
	if err != nil {
		if errors.Is(err, document.ErrAdmission) {
			middleware.IncrementDocumentsRejected()
		}
		return nil, err
	}

	ex, err := r.docs.Extract(req.Context(), f)
	if err != nil {
		if errors.Is(err, document.ErrAdmission) {
			middleware.IncrementDocumentsRejected()
		} else {
			middleware.IncrementDocumentsFailed()
		}
		return nil, err
	}
	return &extractionResponse{Extraction: ex, Preview: preview(ex.Text, r.opt.PreviewChars)}, nil
}

// readFile pulls the "file" part into memory. Bodies past the upload limit
// are cut off by MaxBytesReader and reported as an oversize admission
// failure; anything under it goes through the normal policy check.
func (r *Router) readFile(w http.ResponseWriter, req *http.Request) (document.File, error) {
	// room for the multipart envelope around the file
	req.Body = http.MaxBytesReader(w, req.Body, r.opt.MaxUploadBytes+maxJSONBody)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			cause := fmt.Errorf("%w: request body exceeds %d bytes", document.ErrFileTooLarge, tooBig.Limit)
			return document.File{}, &common.AppError{Kind: document.ErrAdmission, Step: appdocs.StepAdmission, Detail: cause.Error(), Cause: cause}
		}
		return document.File{}, badRequest("invalid multipart form: %v", err)
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	file, hdr, err := req.FormFile("file")
	if err != nil {
		return document.File{}, badRequest("missing form file %q", "file")
	}
	defer file.Close()

	name := middleware.SanitizeString(hdr.Filename)
	if err := middleware.ValidateFileName(name); err != nil {
		return document.File{}, badRequest("%v", err)
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return document.File{}, badRequest("read upload: %v", err)
	}
	return document.File{
		Name:        name,
		ContentType: hdr.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// GET /v1/samples
func (r *Router) handleSamples(w http.ResponseWriter, req *http.Request) error {
	writeJSON(w, http.StatusOK, map[string][]string{"samples": sampleTexts})
	return nil
}

// POST /v1/credentials
// Body: {"fileName": "..."}
func (r *Router) handleCredentials(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody)).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	body.FileName = strings.TrimSpace(body.FileName)
	if err := middleware.ValidateFileName(body.FileName); err != nil {
		return badRequest("%v", err)
	}

	creds, err := r.opt.Issuer.Issue(req.Context(), body.FileName)
	if err != nil {
		return common.NewAppError(document.ErrCredential, appdocs.StepCredential, err)
	}
	writeJSON(w, http.StatusOK, creds)
	return nil
}
