// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// Package contact processes contact form submissions: it validates the
// input, optionally persists the inquiry, and delivers it by email. The
// database row and the email succeed or fail together; a failed delivery
// rolls the saved inquiry back so nothing is recorded that nobody saw.
package contact

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"printfolio/internal/mailer"
	"printfolio/internal/models"
)

// Sentinel errors callers map to HTTP responses.
var (
	ErrValidation         = errors.New("contact: missing required fields")
	ErrConfigUnavailable  = errors.New("contact: company configuration unavailable")
	ErrEmailNotConfigured = errors.New("contact: email delivery not configured")
	ErrDelivery           = errors.New("contact: email delivery failed")
)

// serviceLabels maps service slugs from the contact form to the labels
// shown in inquiry emails. Unknown slugs pass through unchanged.
var serviceLabels = map[string]string{
	"banners-stickers":    "Banners & Stickers",
	"merchandise":         "Merchandise Branding",
	"hospital-stationery": "Books & Hospital Stationery",
	"campaign-items":      "Campaign & Promotional Items",
	"packaging":           "Packaging Solutions",
	"brochures-flyers":    "Brochures & Flyers",
	"other":               "Other",
}

// ServiceLabel resolves a form slug to its display label. An empty slug
// means the visitor picked nothing and reads as "Other".
func ServiceLabel(slug string) string {
	if slug == "" {
		return "Other"
	}
	if label, ok := serviceLabels[slug]; ok {
		return label
	}
	return slug
}

// Submission is one contact form post, already stripped of transport
// details by the handler.
type Submission struct {
	Name      string
	Email     string
	Phone     string
	Service   string
	Message   string
	IPAddress string
	UserAgent string
}

// ConfigSource provides the company configuration record.
type ConfigSource interface {
	GetOrCreate() (*models.CompanyConfig, error)
}

// QueryStore persists inquiries transactionally.
type QueryStore interface {
	Begin() (*sql.Tx, error)
	CreateTx(tx *sql.Tx, q *models.ContactQuery) error
}

// Mailer delivers a rendered inquiry.
type Mailer interface {
	Send(cfg *models.CompanyConfig, msg mailer.Message) error
}

// Service handles contact form submissions end to end.
type Service struct {
	configs ConfigSource
	queries QueryStore
	mailer  Mailer

	now func() time.Time
}

// New creates a contact Service.
func New(configs ConfigSource, queries QueryStore, m Mailer) *Service {
	return &Service{configs: configs, queries: queries, mailer: m, now: time.Now}
}

// Submit validates and processes one submission. When the configuration
// asks for inquiries to be saved, the insert and the email share a
// transaction: a delivery failure rolls the row back.
func (s *Service) Submit(sub Submission) error {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Service = strings.TrimSpace(sub.Service)
	sub.Message = strings.TrimSpace(sub.Message)

	if sub.Name == "" || sub.Email == "" || sub.Message == "" {
		return ErrValidation
	}

	cfg, err := s.configs.GetOrCreate()
	if err != nil {
		slog.Error("contact config lookup failed", "error", err)
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	if !cfg.IsEmailConfigured() {
		return ErrEmailNotConfigured
	}

	msg := mailer.Message{
		Name:         sub.Name,
		Email:        sub.Email,
		Phone:        sub.Phone,
		ServiceLabel: ServiceLabel(sub.Service),
		Body:         sub.Message,
		IPAddress:    sub.IPAddress,
		SubmittedAt:  s.now(),
	}

	if !cfg.AlwaysSaveContactQueries {
		if err := s.mailer.Send(cfg, msg); err != nil {
			slog.Error("contact email delivery failed", "error", err)
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}
		return nil
	}

	tx, err := s.queries.Begin()
	if err != nil {
		return fmt.Errorf("contact begin: %w", err)
	}
	defer tx.Rollback()

	q := &models.ContactQuery{
		Name:      sub.Name,
		Email:     sub.Email,
		Phone:     sub.Phone,
		Service:   sub.Service,
		Message:   sub.Message,
		IPAddress: sub.IPAddress,
		UserAgent: sub.UserAgent,
	}
	if err := s.queries.CreateTx(tx, q); err != nil {
		return fmt.Errorf("contact save: %w", err)
	}

	if err := s.mailer.Send(cfg, msg); err != nil {
		slog.Error("contact email delivery failed, rolling back saved inquiry", "error", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("contact commit: %w", err)
	}
	return nil
}
