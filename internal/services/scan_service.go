// ===============================
// FILE: internal/services/scan_service.go
// ===============================

package services

import (
	"context"

	"didaur/internal/models"
	"didaur/internal/repositories"
	"didaur/internal/utils"
	"didaur/internal/validation"

	"go.uber.org/zap"
)

// scanService implements ScanService
type scanService struct {
	scanRepo repositories.ScanRepository
	ledger   LedgerService
	logger   *zap.Logger
}

// NewScanService creates a new scan service
func NewScanService(
	scanRepo repositories.ScanRepository,
	ledger LedgerService,
	logger *zap.Logger,
) ScanService {
	return &scanService{
		scanRepo: scanRepo,
		ledger:   ledger,
		logger:   logger,
	}
}

// Record stores an analysis result in the capped history log and
// credits the flat scan award plus the CO2 impact. The analysis
// estimate is display-only and never changes the award.
func (s *scanService) Record(ctx context.Context, email string, analysis *models.AnalysisResult) (*ScanResult, error) {
	if err := validation.ValidateStruct(analysis); err != nil {
		return nil, NewValidationError("invalid analysis result", err)
	}

	record := &models.ScanRecord{
		ID:             utils.NewID(),
		Email:          email,
		Timestamp:      utils.NowMillis(),
		AnalysisResult: *analysis,
	}

	if err := s.scanRepo.Create(ctx, record); err != nil {
		return nil, NewInternalError("failed to store scan record")
	}

	result, err := s.ledger.ApplyDelta(ctx, email, &ProgressDelta{
		Kind:         DeltaScan,
		Points:       ScanPoints,
		Co2:          analysis.Co2Impact,
		MaterialType: analysis.MaterialType,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Scan recorded",
		zap.String("email", email),
		zap.String("item", analysis.ItemName),
		zap.String("material", analysis.MaterialType),
	)

	return &ScanResult{
		Record:    record,
		Profile:   result.Profile,
		NewBadges: result.NewBadges,
	}, nil
}

// History returns the user's scan log, most recent first, at most
// models.ScanHistoryLimit entries.
func (s *scanService) History(ctx context.Context, email string) ([]models.ScanRecord, error) {
	records, err := s.scanRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, NewInternalError("failed to load scan history")
	}
	if records == nil {
		records = []models.ScanRecord{}
	}
	return records, nil
}

// Clear wipes the user's scan log. Profile counters are untouched;
// the log is a view, not the ledger.
func (s *scanService) Clear(ctx context.Context, email string) error {
	if err := s.scanRepo.DeleteByEmail(ctx, email); err != nil {
		return NewInternalError("failed to clear scan history")
	}
	return nil
}
