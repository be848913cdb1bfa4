package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

type SettingsGateway interface {
	UpdateProfile(ctx context.Context, in core.ProfileUpdate) (*core.User, error)
	UploadAvatar(ctx context.Context, file core.Attachment) (string, error)
	ImportCSV(ctx context.Context, file core.Attachment) (string, error)
	Export(ctx context.Context, q api.ExportQuery) (*api.Download, error)
}

// SettingsService covers the profile form, avatar upload, CSV import and exports
type SettingsService struct {
	gw      SettingsGateway
	session SessionWriter
	lang    Languages
	pub     Publisher
	logger  *log.Logger
}

func NewSettingsService(gw SettingsGateway, session SessionWriter, lang Languages, pub Publisher, logger *log.Logger) *SettingsService {
	if logger == nil {
		logger = log.Discard()
	}
	return &SettingsService{gw: gw, session: session, lang: lang, pub: pub, logger: logger.WithComponent(log.ComponentSettings)}
}

// UpdateProfile saves the form and merges the stored user into the session
func (s *SettingsService) UpdateProfile(ctx context.Context, in core.ProfileUpdate) (*core.User, error) {
	u, err := s.gw.UpdateProfile(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if u != nil {
		if err := s.session.UpdateUser(ctx, *u); err != nil {
			return nil, err
		}
	}
	return s.session.User(), nil
}

func (s *SettingsService) UploadAvatar(ctx context.Context, file core.Attachment) (string, error) {
	avatar, err := s.gw.UploadAvatar(ctx, file)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.session.UpdateUser(ctx, core.User{Avatar: &avatar}); err != nil {
		return "", err
	}
	return avatar, nil
}

// ImportCSV uploads a statement and returns the backend's summary message
func (s *SettingsService) ImportCSV(ctx context.Context, file core.Attachment) (string, error) {
	msg, err := s.gw.ImportCSV(ctx, file)
	if err != nil {
		return "", fmt.Errorf("import csv: %w", err)
	}
	s.logger.InfoContext(ctx, "CSV imported", "file", file.Filename, "message", msg)
	publishChange(ctx, s.pub, s.logger, amqp.EntityLedger, amqp.OpImported, 0)
	return msg, nil
}

// Export downloads a report in the current UI language. The caller closes Body.
func (s *SettingsService) Export(ctx context.Context, format api.ExportFormat, start, end string) (*api.Download, error) {
	lang := "ru"
	if s.lang != nil {
		base, _ := s.lang.Language().Base()
		lang = strings.ToLower(base.String())
	}
	d, err := s.gw.Export(ctx, api.ExportQuery{Format: format, StartDate: start, EndDate: end, Lang: lang})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	s.logger.InfoContext(ctx, "Export downloaded", log.FieldOperation, log.OpExport, "filename", d.Filename)
	return d, nil
}
