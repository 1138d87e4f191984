package snapshots

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/vigil/internal/events"
	"github.com/aristath/vigil/internal/modules/reports"
	"github.com/aristath/vigil/internal/utils"
)

// ReportSource defines the contract for portfolio reporting needed by snapshots
type ReportSource interface {
	ForPortfolio() (*reports.PortfolioReport, error)
}

// Service captures, lists and prunes portfolio snapshots
type Service struct {
	repo    *Repository
	reports ReportSource
	bus     *events.Bus
	log     zerolog.Logger
}

// NewService creates a new snapshots service
func NewService(repo *Repository, reportSource ReportSource, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		reports: reportSource,
		bus:     bus,
		log:     log.With().Str("service", "snapshots").Logger(),
	}
}

// Capture builds the current portfolio report and persists it as a
// snapshot with the position detail msgpack-encoded
func (s *Service) Capture() (*Snapshot, error) {
	report, err := s.reports.ForPortfolio()
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio report: %w", err)
	}

	payload := Payload{
		AsOf:           report.AsOf,
		Positions:      flattenPositions(report),
		Principal:      report.Ledger.Principal,
		Balance:        report.Ledger.Balance,
		MissingSymbols: report.MissingSymbols,
	}

	encoded, err := msgpack.Marshal(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	snapshot := &Snapshot{
		ID:         uuid.NewString(),
		TakenAt:    time.Now().Unix(),
		TotalValue: report.Totals.MarketValue,
		TotalCost:  report.Totals.CostBasis,
		TotalPL:    report.Totals.UnrealizedPL,
		Partial:    report.Partial,
		Payload:    encoded,
	}

	if err := s.repo.Insert(snapshot); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("snapshot_id", snapshot.ID).
		Float64("total_value", snapshot.TotalValue).
		Bool("partial", snapshot.Partial).
		Msg("Captured portfolio snapshot")

	if s.bus != nil {
		s.bus.PublishData("snapshots", &events.SnapshotSavedData{
			SnapshotID: snapshot.ID,
			TotalValue: snapshot.TotalValue,
			Partial:    snapshot.Partial,
		})
	}

	return snapshot, nil
}

// List returns snapshot summaries newest first
func (s *Service) List() ([]Snapshot, error) {
	return s.repo.List()
}

// Get returns one snapshot with its payload decoded.
// Returns nils when the ID is unknown.
func (s *Service) Get(id string) (*Snapshot, *Payload, error) {
	snapshot, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if snapshot == nil {
		return nil, nil, nil
	}

	var payload Payload
	if err := msgpack.Unmarshal(snapshot.Payload, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	return snapshot, &payload, nil
}

// Delete removes one snapshot. Returns false when the ID is unknown.
func (s *Service) Delete(id string) (bool, error) {
	return s.repo.Delete(id)
}

// DeleteBefore removes snapshots taken before the given day
func (s *Service) DeleteBefore(day string) (int64, error) {
	unix, err := utils.ParseDay(day)
	if err != nil {
		return 0, err
	}

	return s.repo.DeleteBefore(unix)
}

func flattenPositions(report *reports.PortfolioReport) []Position {
	var positions []Position
	for _, account := range report.Accounts {
		for _, p := range account.Positions {
			positions = append(positions, Position{
				AccountID:    p.AccountID,
				AccountName:  account.Account.Name,
				Symbol:       p.Symbol,
				Shares:       p.Shares,
				CostBasis:    p.CostBasis,
				Priced:       p.Priced,
				MarketValue:  p.MarketValue,
				UnrealizedPL: p.UnrealizedPL,
			})
		}
	}
	return positions
}
