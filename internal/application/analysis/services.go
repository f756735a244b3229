package analysis

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/comms-analyzer/internal/application"
	"github.com/bryanwahyu/comms-analyzer/internal/common"
	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/analysis"
)

const stepAnalysis = "analysis"

type Service struct {
	client domain.Client
	clock  application.Clock
	log    logrus.FieldLogger
}

func NewService(client domain.Client, clock application.Clock, log logrus.FieldLogger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{client: client, clock: clock, log: log}
}

// Analyze runs one prompt/reply round trip for text and returns the
// validated result. Every failure is an *common.AppError.
func (s *Service) Analyze(ctx context.Context, text string) (*domain.Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &common.AppError{Kind: domain.ErrEmptyText, Step: stepAnalysis, Detail: "please provide some text to analyze"}
	}

	id := uuid.NewString()
	start := s.clock.Now()
	log := s.log.WithFields(logrus.Fields{"req_id": id, "step": stepAnalysis, "text_len": len(text)})
	log.Info("analysis.start")

	reply, err := s.client.Complete(ctx, domain.CommunicationPrompt(text))
	if err != nil {
		log.WithError(err).Error("analysis.request_failed")
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, common.NewAppError(domain.ErrRequest, stepAnalysis, err)
	}
	if strings.TrimSpace(reply) == "" {
		log.Error("analysis.empty_reply")
		return nil, &common.AppError{Kind: domain.ErrEmptyReply, Step: stepAnalysis}
	}

	result, err := ParseResult(StripCodeFence(reply))
	if err != nil {
		log.WithError(err).WithField("reply_len", len(reply)).Error("analysis.malformed_reply")
		return nil, common.NewAppError(domain.ErrMalformedResponse, stepAnalysis, err)
	}

	now := s.clock.Now()
	log.WithFields(logrus.Fields{
		"overall_score": result.OverallScore,
		"elapsed_ms":    now.Sub(start).Milliseconds(),
	}).Info("analysis.ok")

	return &domain.Report{
		ID:         id,
		AnalyzedAt: now.UTC().Truncate(time.Millisecond),
		Characters: utf8.RuneCountInString(text),
		Result:     result,
	}, nil
}
