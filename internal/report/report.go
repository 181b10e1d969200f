// Package report holds the health report domain: the resource-with-owner
// that the ownership authorization layer guards.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swasthya.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("report: not found")
	ErrInvalidInput = errors.New("report: invalid input")
)

// Severity buckets for symptom reports.
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
)

// Report is a community health report filed by a user. UserID is the owner
// field the ownership check compares against the principal.
type Report struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DistrictID  string    `json:"district_id"`
	BlockID     string    `json:"block_id,omitempty"`
	Symptoms    []string  `json:"symptoms"`
	WaterSource string    `json:"water_source,omitempty"`
	Severity    string    `json:"severity"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID satisfies the ownership-authorization contract.
func (r *Report) OwnerID() string { return r.UserID }

// Store is the persistence surface for reports.
type Store interface {
	CreateReport(ctx context.Context, r *Report) error
	FindReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context, districtID string, limit int) ([]*Report, error)
	UpdateReport(ctx context.Context, r *Report) error
	DeleteReport(ctx context.Context, id string) error
}

// Service validates and persists reports.
type Service struct {
	store Store
}

// NewService constructs the report service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("report: store is required")
	}
	return &Service{store: store}, nil
}

// Create files a new report owned by userID.
func (s *Service) Create(ctx context.Context, userID string, r Report) (*Report, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.DistrictID) == "" {
		return nil, fmt.Errorf("%w: district_id is required", ErrInvalidInput)
	}
	if len(r.Symptoms) == 0 {
		return nil, fmt.Errorf("%w: at least one symptom is required", ErrInvalidInput)
	}
	switch r.Severity {
	case SeverityLow, SeverityModerate, SeverityHigh:
	case "":
		r.Severity = SeverityLow
	default:
		return nil, fmt.Errorf("%w: unsupported severity %s", ErrInvalidInput, r.Severity)
	}

	r.ID = ids.New()
	r.UserID = userID
	if err := s.store.CreateReport(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Get loads a report by id.
func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	return s.store.FindReport(ctx, id)
}

// List returns recent reports, optionally filtered by district.
func (s *Service) List(ctx context.Context, districtID string, limit int) ([]*Report, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.store.ListReports(ctx, strings.TrimSpace(districtID), limit)
}

// Update persists caller-supplied changes to an already-authorized report.
func (s *Service) Update(ctx context.Context, r *Report) error {
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	switch r.Severity {
	case SeverityLow, SeverityModerate, SeverityHigh:
	default:
		return fmt.Errorf("%w: unsupported severity %s", ErrInvalidInput, r.Severity)
	}
	return s.store.UpdateReport(ctx, r)
}

// Delete removes a report.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}
	return s.store.DeleteReport(ctx, id)
}
