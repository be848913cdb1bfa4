package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	"fintrack/internal/log"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Supported UI languages
var (
	English = language.English
	Russian = language.Russian
)

var supportedLanguages = language.NewMatcher([]language.Tag{Russian, English})

var (
	ErrUnsupportedTheme    = errors.New("unsupported theme")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Preferences is the persisted UI settings record
type Preferences struct {
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
}

// DefaultPreferences is the state used before anything was persisted
func DefaultPreferences() Preferences {
	return Preferences{Theme: Light, Language: Russian.String()}
}

// ParseLanguage resolves a BCP 47 tag (e.g. "en-GB") to a supported base language
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	_, idx, conf := supportedLanguages.Match(tag)
	if conf < language.High {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return []language.Tag{Russian, English}[idx], nil
}

// PreferenceStore owns theme and language, independent of the session
type PreferenceStore struct {
	mu        sync.RWMutex
	prefs     Preferences
	persister Persister
	logger    *log.Logger
	subs      subscribers[Preferences]
}

// NewPreferenceStore loads persisted preferences, falling back to defaults for
// missing or unsupported values
func NewPreferenceStore(ctx context.Context, p Persister, logger *log.Logger) (*PreferenceStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &PreferenceStore{
		prefs:     DefaultPreferences(),
		persister: p,
		logger:    logger.WithComponent(log.ComponentPreferences),
	}

	var stored Preferences
	found, err := loadState(ctx, p, PreferencesNamespace, &stored)
	if err != nil {
		return nil, err
	}
	if found {
		if stored.Theme == Light || stored.Theme == Dark {
			s.prefs.Theme = stored.Theme
		}
		if tag, err := ParseLanguage(stored.Language); err == nil {
			s.prefs.Language = tag.String()
		} else {
			s.logger.WarnContext(ctx, "Ignoring stored language", "language", stored.Language)
		}
	}
	return s, nil
}

// Get returns the current preferences
func (s *PreferenceStore) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Language returns the current UI language tag
func (s *PreferenceStore) Language() language.Tag {
	return language.Make(s.Get().Language)
}

// ToggleTheme flips between light and dark
func (s *PreferenceStore) ToggleTheme(ctx context.Context) error {
	return s.mutate(ctx, func(p *Preferences) {
		if p.Theme == Dark {
			p.Theme = Light
		} else {
			p.Theme = Dark
		}
	})
}

func (s *PreferenceStore) SetTheme(ctx context.Context, theme Theme) error {
	if theme != Light && theme != Dark {
		return fmt.Errorf("%w: %q", ErrUnsupportedTheme, string(theme))
	}
	return s.mutate(ctx, func(p *Preferences) { p.Theme = theme })
}

func (s *PreferenceStore) SetLanguage(ctx context.Context, lang string) error {
	tag, err := ParseLanguage(lang)
	if err != nil {
		return err
	}
	return s.mutate(ctx, func(p *Preferences) { p.Language = tag.String() })
}

// Subscribe registers fn to receive the preferences after each mutation
func (s *PreferenceStore) Subscribe(fn func(Preferences)) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *PreferenceStore) mutate(ctx context.Context, fn func(*Preferences)) error {
	s.mu.Lock()
	fn(&s.prefs)
	snapshot := s.prefs
	err := saveState(ctx, s.persister, PreferencesNamespace, snapshot)
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist preferences", log.FieldError, err)
	}
	s.subs.notify(snapshot)
	return err
}
