// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"printfolio/internal/models"
)

// ContactQueryStore handles persisted contact form submissions.
type ContactQueryStore struct {
	db *sql.DB
}

// NewContactQueryStore creates a new ContactQueryStore with the given database connection.
func NewContactQueryStore(db *sql.DB) *ContactQueryStore {
	return &ContactQueryStore{db: db}
}

// Begin starts a transaction on the underlying connection so callers can
// tie the insert to other work, like email delivery.
func (s *ContactQueryStore) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// CreateTx inserts a contact query inside the given transaction. The row
// only survives if the caller commits.
func (s *ContactQueryStore) CreateTx(tx *sql.Tx, q *models.ContactQuery) error {
	err := tx.QueryRow(`
		INSERT INTO contact_queries (name, email, phone, service, message, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, q.Name, q.Email, q.Phone, q.Service, q.Message, q.IPAddress, q.UserAgent).
		Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contact query: %w", err)
	}
	return nil
}

// List returns all contact queries, newest first.
func (s *ContactQueryStore) List() ([]models.ContactQuery, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, phone, service, message, ip_address, user_agent, created_at
		FROM contact_queries
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list contact queries: %w", err)
	}
	defer rows.Close()

	var queries []models.ContactQuery
	for rows.Next() {
		var q models.ContactQuery
		if err := rows.Scan(
			&q.ID, &q.Name, &q.Email, &q.Phone, &q.Service,
			&q.Message, &q.IPAddress, &q.UserAgent, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}
