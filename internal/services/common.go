// Package services holds the page controllers: each owns the state of one
// screen, fetches it through the gateway, and re-derives its view models.
package services

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

// Publisher announces ledger mutations. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// Languages reports the current UI language. *state.PreferenceStore satisfies it.
type Languages interface {
	Language() language.Tag
}

type fixedLanguage language.Tag

func (f fixedLanguage) Language() language.Tag { return language.Tag(f) }

// FixedLanguage is a Languages that never changes
func FixedLanguage(tag language.Tag) Languages {
	return fixedLanguage(tag)
}

// LoadState is the loading/error part every page shares
type LoadState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"error_kind,omitempty"`
}

func loadState(loading bool, err error) LoadState {
	st := LoadState{Loading: loading}
	if err != nil {
		st.Error = api.UserMessage(err)
		st.Kind = string(api.KindOf(err))
	}
	return st
}

func localeOf(l Languages) views.Locale {
	if l == nil {
		return views.LocaleFor("")
	}
	return views.LocaleFor(l.Language().String())
}

// discardStale logs a response that lost the race to a newer request
func discardStale(ctx context.Context, logger *log.Logger, t latest.Ticket, what string) {
	logger.DebugContext(ctx, "Discarding stale response", log.FieldOperation, what, log.FieldSeq, t.Seq())
}

// publishChange sends a ledger change notification. Failures are logged and
// never fail the mutation that already succeeded on the backend.
func publishChange(ctx context.Context, pub Publisher, logger *log.Logger, entity, op string, id int64) {
	if pub == nil {
		logger.DebugContext(ctx, "AMQP publisher not configured, skipping ledger change", log.FieldEntity, entity)
		return
	}
	if err := pub.PublishLedgerChanged(ctx, amqp.NewLedgerChangedMessage(entity, op, id)); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldEntity, entity,
			log.FieldEntityID, id,
			log.FieldError, err)
	}
}

// refetchErr joins a mutation that succeeded with a follow-up fetch that did not
func refetchErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrRefreshFailed, err)
}

// ErrRefreshFailed marks a mutation whose follow-up re-fetch failed. The
// mutation itself went through.
var ErrRefreshFailed = errors.New("refresh after change failed")
