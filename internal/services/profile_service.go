package services

import (
	"context"
	"errors"
	"fmt"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/storage"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
	UpsertProfile(ctx context.Context, p core.Profile) error
}

// ProfileInput carries the raw profile update. A nil MonthlySalary clears
// the salary baseline and disables budget-usage insights.
type ProfileInput struct {
	FullName      string
	Email         string
	MonthlySalary *string
	Currency      string
}

type ProfileService struct {
	repo    ProfileRepository
	reports ReportInvalidator
	logger  *log.Logger
}

func NewProfileService(repo ProfileRepository, reports ReportInvalidator, logger *log.Logger) *ProfileService {
	return &ProfileService{
		repo:    repo,
		reports: reports,
		logger:  logger.WithComponent(log.ComponentApp),
	}
}

// Get returns the stored profile, or an empty USD profile for users who
// have not saved one yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (*core.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &core.Profile{UserID: userID, Currency: "USD"}, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*core.Profile, error) {
	profile := core.Profile{
		UserID:   userID,
		FullName: in.FullName,
		Email:    in.Email,
		Currency: in.Currency,
	}
	if profile.Currency == "" {
		profile.Currency = "USD"
	}

	if in.MonthlySalary != nil && *in.MonthlySalary != "" {
		salary, err := core.ParseAmount(*in.MonthlySalary)
		if err != nil {
			return nil, fmt.Errorf("monthly salary: %w", err)
		}
		profile.MonthlySalary = salary
		profile.HasSalary = true
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	// Budget-usage and weekly-pace insights read the salary, so cached
	// reports are stale now.
	if s.reports != nil {
		s.reports.DeletePrefix(userID + ":")
	}
	return &profile, nil
}
