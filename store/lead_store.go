package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"leadflow/models"
	"leadflow/utils"
)

// DefaultSource is recorded when a click event carries no lead source.
const DefaultSource = "unknown"

// LeadStore owns all lead persistence. The database is the only
// serialization point: dedup rides the composite unique index and status
// transitions ride a version-conditioned update, so the store holds no locks.
type LeadStore struct {
	db *gorm.DB
}

func NewLeadStore(db *gorm.DB) *LeadStore {
	return &LeadStore{db: db}
}

// ClickInput is a validated, normalized click event.
type ClickInput struct {
	Email     string
	Source    string
	Campaign  string
	Company   string
	Phone     string
	ClickedAt time.Time
}

// CreateFromClick runs the dedup gate: a single insert with
// conflict-do-nothing semantics against the (email, source) unique index.
// A check-then-insert would race under concurrent webhook delivery; the
// constraint cannot. Zero rows affected means the pair is already known.
func (s *LeadStore) CreateFromClick(ctx context.Context, in ClickInput) (*models.Lead, error) {
	source := in.Source
	if source == "" {
		source = DefaultSource
	}
	clickedAt := in.ClickedAt
	if clickedAt.IsZero() {
		clickedAt = time.Now()
	}

	lead := models.Lead{
		LeadUID:   utils.GenerateLeadUID(),
		Email:     in.Email,
		Source:    source,
		Campaign:  in.Campaign,
		Company:   in.Company,
		Phone:     in.Phone,
		Status:    models.StatusNew,
		Version:   1,
		ClickedAt: clickedAt,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "source"}},
			DoNothing: true,
		}).
		Create(&lead)
	if res.Error != nil {
		return nil, utils.Transient("insert lead", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrDuplicateLead
	}
	return &lead, nil
}

// TransitionInput describes one requested status change.
type TransitionInput struct {
	LeadID          uint
	ExpectedVersion int
	ToStatus        string
	Actor           *models.SalesRep // nil for system-initiated transitions
}

// Transition atomically moves a lead through the state machine with an
// optimistic-lock compare-and-swap:
//
//	UPDATE leads SET status=?, version=expected+1, ... WHERE id=? AND version=expected
//
// Zero rows affected distinguishes a stale version from a missing lead with a
// follow-up existence check. A successful swap appends exactly one
// StatusHistory row in the same transaction, keeping the invariant
// version == 1 + count(history).
func (s *LeadStore) Transition(ctx context.Context, in TransitionInput) (*models.Lead, error) {
	if !models.ValidStatus(in.ToStatus) {
		return nil, utils.ErrInvalidTransition
	}

	// Advisory pre-read for state-machine and ownership errors; correctness
	// still rests on the conditional update below.
	var current models.Lead
	if err := s.db.WithContext(ctx).First(&current, in.LeadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrLeadNotFound
		}
		return nil, utils.Transient("load lead", err)
	}
	if !models.CanTransition(current.Status, in.ToStatus) {
		return nil, utils.ErrInvalidTransition
	}
	if current.Status != models.StatusNew && current.OwnerID != nil && in.Actor != nil {
		if in.Actor.ID != *current.OwnerID && !in.Actor.IsAdmin() {
			return nil, utils.ErrNotOwner
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":  in.ToStatus,
		"version": in.ExpectedVersion + 1,
	}
	switch in.ToStatus {
	case models.StatusContacted:
		updates["contacted_at"] = now
		if in.Actor != nil {
			updates["owner_id"] = in.Actor.ID
		}
	case models.StatusClosed:
		updates["closed_at"] = now
	case models.StatusLost:
		updates["lost_at"] = now
	case models.StatusUnreachable:
		updates["unreachable_at"] = now
	}

	actor := "system"
	if in.Actor != nil {
		actor = in.Actor.Name
	}

	var updated models.Lead
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Lead{}).
			Where("id = ? AND version = ?", in.LeadID, in.ExpectedVersion).
			Updates(updates)
		if res.Error != nil {
			return utils.Transient("update lead", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Lead{}).Where("id = ?", in.LeadID).Count(&count).Error; err != nil {
				return utils.Transient("check lead", err)
			}
			if count == 0 {
				return utils.ErrLeadNotFound
			}
			return utils.ErrVersionConflict
		}

		history := models.StatusHistory{
			LeadID:     in.LeadID,
			FromStatus: current.Status,
			ToStatus:   in.ToStatus,
			Actor:      actor,
		}
		if err := tx.Create(&history).Error; err != nil {
			return utils.Transient("append status history", err)
		}

		return tx.Preload("Owner").First(&updated, in.LeadID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateEnrichment writes the AI-analysis fields without touching status or
// version; enrichment is not a status transition.
func (s *LeadStore) UpdateEnrichment(ctx context.Context, leadID uint, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", leadID).Updates(updates)
	if res.Error != nil {
		return utils.Transient("update enrichment", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrLeadNotFound
	}
	return nil
}

// FindByUID resolves a canonical lead reference.
func (s *LeadStore) FindByUID(ctx context.Context, uid string) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).Preload("Owner").Where("lead_uid = ?", uid).First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrLeadNotFound
		}
		return nil, utils.Transient("load lead", err)
	}
	return &lead, nil
}

// FindByRowID resolves a legacy row-ordinal reference.
func (s *LeadStore) FindByRowID(ctx context.Context, rowID uint) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).Preload("Owner").First(&lead, rowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrLeadNotFound
		}
		return nil, utils.Transient("load lead", err)
	}
	return &lead, nil
}

// ListFilter narrows and pages the dashboard lead listing.
type ListFilter struct {
	Status  string
	Source  string
	OwnerID uint
	Page    int
	Limit   int
}

// List returns leads newest-first with the given filters.
func (s *LeadStore) List(ctx context.Context, f ListFilter) ([]models.Lead, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Lead{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Source != "" {
		query = query.Where("source = ?", f.Source)
	}
	if f.OwnerID != 0 {
		query = query.Where("owner_id = ?", f.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.Transient("count leads", err)
	}

	var leads []models.Lead
	// id breaks created_at ties so pagination never skips or repeats rows.
	err := query.Preload("Owner").
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&leads).Error
	if err != nil {
		return nil, 0, utils.Transient("list leads", err)
	}
	return leads, total, nil
}

// History returns a lead's transitions oldest-first.
func (s *LeadStore) History(ctx context.Context, leadID uint) ([]models.StatusHistory, error) {
	var entries []models.StatusHistory
	err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, utils.Transient("load history", err)
	}
	return entries, nil
}

// RecordEvent appends one raw webhook event to the append-only event log.
func (s *LeadStore) RecordEvent(ctx context.Context, event *models.LeadEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return utils.Transient("record event", err)
	}
	return nil
}

// StatusCount is one row of the dashboard aggregation.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// SourceCount is one row of the per-source aggregation.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// Stats is the dashboard summary.
type Stats struct {
	Total          int64         `json:"total"`
	ByStatus       []StatusCount `json:"by_status"`
	BySource       []SourceCount `json:"by_source"`
	ConversionRate float64       `json:"conversion_rate"`
	AvgConfidence  float64       `json:"avg_confidence"`
}

// AggregateStats computes the dashboard summary over all persisted leads.
func (s *LeadStore) AggregateStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Lead{}).Count(&stats.Total).Error; err != nil {
		return nil, utils.Transient("count leads", err)
	}
	if err := db.Model(&models.Lead{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, utils.Transient("group by status", err)
	}
	if err := db.Model(&models.Lead{}).
		Select("source, count(*) as count").
		Group("source").
		Scan(&stats.BySource).Error; err != nil {
		return nil, utils.Transient("group by source", err)
	}

	if stats.Total > 0 {
		var closed int64
		for _, sc := range stats.ByStatus {
			if sc.Status == models.StatusClosed {
				closed = sc.Count
			}
		}
		stats.ConversionRate = float64(closed) / float64(stats.Total)

		var avg *float64
		if err := db.Model(&models.Lead{}).
			Select("avg(confidence)").
			Scan(&avg).Error; err != nil {
			return nil, utils.Transient("average confidence", err)
		}
		if avg != nil {
			stats.AvgConfidence = *avg
		}
	}
	return stats, nil
}

// FindRepByLineID resolves an active roster member by chat-platform user id.
func (s *LeadStore) FindRepByLineID(ctx context.Context, lineUserID string) (*models.SalesRep, error) {
	var rep models.SalesRep
	err := s.db.WithContext(ctx).
		Where("line_user_id = ? AND active = ?", lineUserID, true).
		First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrRepNotFound
		}
		return nil, utils.Transient("load sales rep", err)
	}
	return &rep, nil
}
