package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clauseguard-backend/document"
	"clauseguard-backend/models"
	"clauseguard-backend/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTopK is the number of precedent matches retrieved per clause.
const DefaultTopK = 3

// AnalysisService runs the full pipeline for one uploaded contract:
// extract text, split into clauses, look up precedents, score each clause.
type AnalysisService struct {
	risk   *RiskService
	store  repository.PrecedentStore
	logger *logrus.Logger
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithRiskService sets the clause risk analyzer
func AnalysisWithRiskService(risk *RiskService) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.risk = risk
	}
}

// AnalysisWithPrecedentStore sets the precedent store
func AnalysisWithPrecedentStore(store repository.PrecedentStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// AnalysisWithLogger sets the logger
func AnalysisWithLogger(logger *logrus.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeDocumentRequest carries the inputs for a document analysis.
type AnalyzeDocumentRequest struct {
	DocumentID uuid.UUID
	Data       []byte
	Format     models.DocumentFormat
	// MaxClauses caps the number of clauses analyzed. Zero means no cap.
	MaxClauses int
	// TopK is the number of precedent matches per clause. Zero uses
	// DefaultTopK; negative disables the lookup.
	TopK int
}

// AnalyzeDocument runs the pipeline. Extraction failures abort the whole
// analysis. A failed clause verdict becomes a placeholder entry and the
// pipeline continues; an unreachable backend stops further model calls and
// marks the report incomplete. Precedent lookup failures degrade to a
// warning. The report always has one entry per analyzed clause, in order.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) (*models.AnalysisReport, error) {
	text, err := document.Extract(req.Data, req.Format)
	if err != nil {
		return nil, err
	}

	texts := document.Split(text)
	clauses := make([]models.Clause, len(texts))
	for i, t := range texts {
		clauses[i] = models.Clause{Index: i, Text: t}
	}
	if req.MaxClauses > 0 && len(clauses) > req.MaxClauses {
		s.logger.WithFields(logrus.Fields{
			"document_id": req.DocumentID,
			"clauses":     len(clauses),
			"cap":         req.MaxClauses,
		}).Info("capping clause count")
		clauses = clauses[:req.MaxClauses]
	}

	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	report := &models.AnalysisReport{
		DocumentID: req.DocumentID,
		Entries:    make([]models.ClauseAnalysis, 0, len(clauses)),
		Complete:   true,
		CreatedAt:  time.Now().UTC(),
	}

	precedentsDown := false
	backendDown := false

	for _, clause := range clauses {
		entry := models.ClauseAnalysis{Clause: clause}

		if backendDown {
			entry.Error = "skipped: analysis backend unavailable"
			report.Entries = append(report.Entries, entry)
			continue
		}

		if s.store != nil && topK > 0 && !precedentsDown {
			matches, perr := s.store.Query(ctx, clause.Text, topK)
			if perr != nil {
				precedentsDown = true
				s.logger.WithError(perr).WithField("document_id", req.DocumentID).
					Warn("precedent lookup failed, continuing without context")
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("precedent lookup unavailable: %s", perr.Error()))
			} else {
				entry.Precedents = matches
			}
		}

		verdict, aerr := s.risk.AnalyzeClause(ctx, req.DocumentID, clause, entry.Precedents)
		switch {
		case aerr == nil:
			entry.Verdict = verdict
		case errors.Is(aerr, ErrBackendUnavailable):
			backendDown = true
			entry.Error = aerr.Error()
			report.Complete = false
			report.IncompleteReason = aerr.Error()
			s.logger.WithError(aerr).WithField("document_id", req.DocumentID).
				Error("analysis backend unavailable, skipping remaining clauses")
		default:
			entry.Error = aerr.Error()
			s.logger.WithError(aerr).WithFields(logrus.Fields{
				"document_id":  req.DocumentID,
				"clause_index": clause.Index,
			}).Warn("clause analysis failed")
		}

		report.Entries = append(report.Entries, entry)
	}

	return report, nil
}
