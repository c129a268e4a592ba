// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyConfig is the singleton company-level configuration record:
// branding details plus the SMTP transport used for contact inquiries.
// The table is constrained to one row via the Singleton sentinel flag.
type CompanyConfig struct {
	ID             uuid.UUID `json:"id"`
	Address        string    `json:"address"`
	PhonePrimary   string    `json:"phone_primary"`
	PhoneSecondary string    `json:"phone_secondary"`
	Facebook       string    `json:"facebook"`
	Instagram      string    `json:"instagram"`
	WhatsApp       string    `json:"whatsapp"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	// SMTPPassword is stored encrypted at rest; ConfigStore decrypts on read.
	SMTPPassword string `json:"-"`
	SMTPUseTLS   bool   `json:"smtp_use_tls"`
	EmailFrom    string `json:"email_from"`
	EmailTo      string `json:"email_to"`

	AlwaysSaveContactQueries bool `json:"always_save_contact_queries"`

	// Singleton is the unique sentinel enforcing the single row. Saves
	// always force it true.
	Singleton bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmailConfigured reports whether the SMTP transport is usable:
// host, username, and password must all be non-empty.
func (c *CompanyConfig) IsEmailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// SenderAddress returns the address inquiries are sent from: the
// configured from-address, falling back to the SMTP username, falling
// back to the given system default.
func (c *CompanyConfig) SenderAddress(systemDefault string) string {
	if c.EmailFrom != "" {
		return c.EmailFrom
	}
	if c.SMTPUsername != "" {
		return c.SMTPUsername
	}
	return systemDefault
}

// RecipientAddress returns the address inquiries are delivered to: the
// configured to-address, falling back to the SMTP username, falling back
// to the sender address.
func (c *CompanyConfig) RecipientAddress(systemDefault string) string {
	if c.EmailTo != "" {
		return c.EmailTo
	}
	if c.SMTPUsername != "" {
		return c.SMTPUsername
	}
	return c.SenderAddress(systemDefault)
}
