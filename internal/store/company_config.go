// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"printfolio/internal/models"
	"printfolio/internal/secret"
)

// ConfigStore handles the singleton company configuration record. The
// table's unique sentinel column guarantees at most one row exists; the
// store never deletes it, only reads and upserts. SMTP passwords are
// encrypted at rest when a codec is configured.
type ConfigStore struct {
	db    *sql.DB
	codec *secret.Codec
}

// NewConfigStore creates a new ConfigStore. The codec may be nil, in
// which case passwords are stored as plaintext (development only).
func NewConfigStore(db *sql.DB, codec *secret.Codec) *ConfigStore {
	return &ConfigStore{db: db, codec: codec}
}

const configColumns = `id, address, phone_primary, phone_secondary,
	facebook, instagram, whatsapp,
	smtp_host, smtp_port, smtp_username, smtp_password, smtp_use_tls,
	email_from, email_to, always_save_contact_queries, singleton,
	created_at, updated_at`

func (s *ConfigStore) scan(row *sql.Row) (*models.CompanyConfig, error) {
	c := &models.CompanyConfig{}
	err := row.Scan(
		&c.ID, &c.Address, &c.PhonePrimary, &c.PhoneSecondary,
		&c.Facebook, &c.Instagram, &c.WhatsApp,
		&c.SMTPHost, &c.SMTPPort, &c.SMTPUsername, &c.SMTPPassword, &c.SMTPUseTLS,
		&c.EmailFrom, &c.EmailTo, &c.AlwaysSaveContactQueries, &c.Singleton,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.codec != nil && c.SMTPPassword != "" {
		plain, err := s.codec.Decrypt(c.SMTPPassword)
		if err != nil {
			return nil, fmt.Errorf("decrypt smtp password: %w", err)
		}
		c.SMTPPassword = plain
	}
	return c, nil
}

// GetOrCreate returns the configuration record, creating an empty one on
// first access. The insert ignores conflicts so concurrent first reads
// both land on the same row.
func (s *ConfigStore) GetOrCreate() (*models.CompanyConfig, error) {
	c, err := s.scan(s.db.QueryRow("SELECT " + configColumns + " FROM company_config"))
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get config: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO company_config (singleton) VALUES (TRUE)
		ON CONFLICT (singleton) DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}

	c, err = s.scan(s.db.QueryRow("SELECT " + configColumns + " FROM company_config"))
	if err != nil {
		return nil, fmt.Errorf("get config after create: %w", err)
	}
	return c, nil
}

// Save upserts the configuration record. The singleton sentinel is forced
// so writes always target the one row regardless of what the caller set.
func (s *ConfigStore) Save(c *models.CompanyConfig) error {
	password := c.SMTPPassword
	if s.codec != nil {
		encrypted, err := s.codec.Encrypt(password)
		if err != nil {
			return fmt.Errorf("encrypt smtp password: %w", err)
		}
		password = encrypted
	}

	c.Singleton = true
	err := s.db.QueryRow(`
		INSERT INTO company_config (
			address, phone_primary, phone_secondary,
			facebook, instagram, whatsapp,
			smtp_host, smtp_port, smtp_username, smtp_password, smtp_use_tls,
			email_from, email_to, always_save_contact_queries, singleton
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE)
		ON CONFLICT (singleton) DO UPDATE SET
			address = EXCLUDED.address,
			phone_primary = EXCLUDED.phone_primary,
			phone_secondary = EXCLUDED.phone_secondary,
			facebook = EXCLUDED.facebook,
			instagram = EXCLUDED.instagram,
			whatsapp = EXCLUDED.whatsapp,
			smtp_host = EXCLUDED.smtp_host,
			smtp_port = EXCLUDED.smtp_port,
			smtp_username = EXCLUDED.smtp_username,
			smtp_password = EXCLUDED.smtp_password,
			smtp_use_tls = EXCLUDED.smtp_use_tls,
			email_from = EXCLUDED.email_from,
			email_to = EXCLUDED.email_to,
			always_save_contact_queries = EXCLUDED.always_save_contact_queries,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		c.Address, c.PhonePrimary, c.PhoneSecondary,
		c.Facebook, c.Instagram, c.WhatsApp,
		c.SMTPHost, c.SMTPPort, c.SMTPUsername, password, c.SMTPUseTLS,
		c.EmailFrom, c.EmailTo, c.AlwaysSaveContactQueries,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
