package documents

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/comms-analyzer/internal/common"
	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/document"
)

// Step names used in errors and logs.
const (
	StepAdmission  = "file admission"
	StepCredential = "credential acquisition"
	StepUpload     = "file upload"
	StepExtraction = "text extraction"
)

// Service turns an uploaded document into plain text. Each call is
// independent; nothing is kept between steps or between calls.
type Service struct {
	Policy      domain.Policy
	Credentials domain.CredentialIssuer
	Uploader    domain.Uploader
	Extractor   domain.Extractor
	Log         logrus.FieldLogger
}

// Extract runs admission, then credential acquisition, byte transfer and
// text extraction strictly in that order. The first failure aborts the run.
func (s *Service) Extract(ctx context.Context, f domain.File) (*domain.Extraction, error) {
	log := s.Log.WithFields(logrus.Fields{
		"req_id":       uuid.NewString(),
		"file_name":    f.Name,
		"content_type": f.ContentType,
		"size_bytes":   f.Size(),
	})

	if err := s.Policy.Admit(f); err != nil {
		log.WithError(err).Warn("document.admission_rejected")
		return nil, &common.AppError{Kind: domain.ErrAdmission, Step: StepAdmission, Detail: err.Error(), Cause: err}
	}

	start := time.Now()
	log.WithField("step", StepCredential).Info("document.step")
	creds, err := s.Credentials.Issue(ctx, f.Name)
	if err != nil {
		log.WithError(err).WithField("step", StepCredential).Error("document.step_failed")
		return nil, common.NewAppError(domain.ErrCredential, StepCredential, err)
	}

	log.WithField("step", StepUpload).Info("document.step")
	if err := s.Uploader.Upload(ctx, creds.UploadURL, f); err != nil {
		log.WithError(err).WithField("step", StepUpload).Error("document.step_failed")
		return nil, common.NewAppError(domain.ErrUpload, StepUpload, err)
	}

	log.WithField("step", StepExtraction).Info("document.step")
	text, err := s.Extractor.Extract(ctx, creds.ReadURL)
	if err != nil {
		log.WithError(err).WithField("step", StepExtraction).Error("document.step_failed")
		return nil, common.NewAppError(domain.ErrExtraction, StepExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		log.WithField("step", StepExtraction).Warn("document.empty_content")
		return nil, &common.AppError{Kind: domain.ErrEmptyContent, Step: StepExtraction}
	}

	chars := utf8.RuneCountInString(text)
	log.WithFields(logrus.Fields{
		"characters": chars,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("document.extracted")

	return &domain.Extraction{
		FileName:   f.Name,
		SizeBytes:  f.Size(),
		Characters: chars,
		Text:       text,
	}, nil
}
