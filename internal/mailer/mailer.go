// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// Package mailer delivers contact form inquiries over SMTP using the
// company's stored mail settings. Bodies are rendered from embedded
// templates in both plain text and HTML.
package mailer

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/wneessen/go-mail"

	"printfolio/internal/models"
)

//go:embed templates
var templateFS embed.FS

var (
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/contact_form.txt"))
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/contact_form.html"))
)

// Message carries a rendered-ready inquiry.
type Message struct {
	Name         string
	Email        string
	Phone        string
	ServiceLabel string
	Body         string
	IPAddress    string
	SubmittedAt  time.Time
}

// SMTP sends inquiry emails using the SMTP settings from the company
// configuration. The zero host is rejected by Send, so callers gate on
// CompanyConfig.IsEmailConfigured first.
type SMTP struct {
	systemFrom string
}

// NewSMTP creates an SMTP mailer. systemFrom is the address used when the
// configuration specifies neither a from-address nor an SMTP username.
func NewSMTP(systemFrom string) *SMTP {
	return &SMTP{systemFrom: systemFrom}
}

// Send renders and delivers the inquiry to the configured recipient.
func (s *SMTP) Send(cfg *models.CompanyConfig, msg Message) error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("mailer: smtp host not configured")
	}

	text, html, err := renderBody(msg)
	if err != nil {
		return fmt.Errorf("mailer: render: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(cfg.SenderAddress(s.systemFrom)); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := m.To(cfg.RecipientAddress(s.systemFrom)); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	if msg.Email != "" {
		// Replies should land with the person who asked.
		if err := m.ReplyTo(msg.Email); err != nil {
			return fmt.Errorf("mailer: reply-to: %w", err)
		}
	}
	m.Subject("New Inquiry from " + msg.Name)
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, html)

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
	}
	if cfg.SMTPUseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}

	if err := client.DialAndSend(m); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// renderBody fills both template variants with the inquiry.
func renderBody(msg Message) (text, html string, err error) {
	data := map[string]any{
		"Name":        msg.Name,
		"Email":       msg.Email,
		"Phone":       orDash(msg.Phone),
		"Service":     msg.ServiceLabel,
		"Message":     msg.Body,
		"IPAddress":   orDash(msg.IPAddress),
		"SubmittedAt": msg.SubmittedAt.Format("2006-01-02 15:04 MST"),
	}

	var tb, hb strings.Builder
	if err := textTmpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := htmlTmpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
