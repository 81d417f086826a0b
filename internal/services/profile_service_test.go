package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

type trackingInvalidator struct {
	prefixes []string
}

func (t *trackingInvalidator) DeletePrefix(prefix string) int {
	t.prefixes = append(t.prefixes, prefix)
	return 1
}

func TestProfileGetDefaultsForNewUser(t *testing.T) {
	svc := NewProfileService(&fakeProfileRepo{}, nil, log.New(log.DefaultConfig()))

	profile, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if profile.UserID != "user-1" || profile.Currency != "USD" {
		t.Errorf("profile = %+v, want empty USD profile", profile)
	}
	if profile.HasSalary {
		t.Error("new profile should not have a salary")
	}
}

func TestProfileUpdate(t *testing.T) {
	repo := &fakeProfileRepo{}
	inv := &trackingInvalidator{}
	svc := NewProfileService(repo, inv, log.New(log.DefaultConfig()))

	salary := "2500,00"
	profile, err := svc.Update(context.Background(), "user-1", ProfileInput{
		FullName:      "Test User",
		Email:         "user@example.com",
		MonthlySalary: &salary,
		Currency:      "EUR",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !profile.HasSalary || !profile.MonthlySalary.Equal(decimal.RequireFromString("2500")) {
		t.Errorf("salary = %s (has=%v), want 2500", profile.MonthlySalary, profile.HasSalary)
	}
	if len(inv.prefixes) != 1 || inv.prefixes[0] != "user-1:" {
		t.Errorf("invalidated prefixes = %v, want [user-1:]", inv.prefixes)
	}

	stored, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.FullName != "Test User" || stored.Currency != "EUR" {
		t.Errorf("stored profile = %+v", stored)
	}

	t.Run("clearing salary", func(t *testing.T) {
		profile, err := svc.Update(context.Background(), "user-1", ProfileInput{
			FullName: "Test User",
			Currency: "EUR",
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if profile.HasSalary {
			t.Error("salary should be cleared when omitted")
		}
	})

	t.Run("invalid salary", func(t *testing.T) {
		bad := "-100"
		if _, err := svc.Update(context.Background(), "user-1", ProfileInput{MonthlySalary: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Update() error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("currency defaults", func(t *testing.T) {
		profile, err := svc.Update(context.Background(), "user-2", ProfileInput{})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if profile.Currency != "USD" {
			t.Errorf("Currency = %q, want USD", profile.Currency)
		}
	})
}
