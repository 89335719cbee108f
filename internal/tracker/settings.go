package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/storage"
)

// Theme is the display theme preference.
type Theme string

// Themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Setting keys as stored.
const (
	KeyTheme           = "theme"
	KeyReminderEnabled = "reminder_enabled"
	KeyReminderTime    = "reminder_time"
)

// SettingKeys lists every known key.
var SettingKeys = []string{KeyTheme, KeyReminderEnabled, KeyReminderTime}

// ReminderTimeLayout is the HH:MM layout of reminder times.
const ReminderTimeLayout = "15:04"

// ErrInvalidSetting is returned for unknown keys and malformed values.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings are the user preferences kept alongside the readings.
type Settings struct {
	Theme           Theme  `json:"theme"`
	ReminderEnabled bool   `json:"reminderEnabled"`
	ReminderTime    string `json:"reminderTime"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Theme:           ThemeSystem,
		ReminderEnabled: false,
		ReminderTime:    "20:00",
	}
}

// Normalized returns s with the theme lower-cased and surrounding spaces
// trimmed, the form in which settings are validated and stored.
func (s Settings) Normalized() Settings {
	s.Theme = Theme(strings.ToLower(strings.TrimSpace(string(s.Theme))))
	s.ReminderTime = strings.TrimSpace(s.ReminderTime)
	return s
}

// Validate checks every field after normalizing it.
func (s Settings) Validate() error {
	s = s.Normalized()
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%w: theme %q must be light, dark or system", ErrInvalidSetting, s.Theme)
	}
	if _, err := time.Parse(ReminderTimeLayout, s.ReminderTime); err != nil {
		return fmt.Errorf("%w: reminder time %q must be HH:MM", ErrInvalidSetting, s.ReminderTime)
	}
	return nil
}

// Get returns the value of key formatted for storage.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyTheme:
		return string(s.Theme), nil
	case KeyReminderEnabled:
		return strconv.FormatBool(s.ReminderEnabled), nil
	case KeyReminderTime:
		return s.ReminderTime, nil
	default:
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
}

// Set parses value into the field named by key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyTheme:
		s.Theme = Theme(value)
	case KeyReminderEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalidSetting, key)
		}
		s.ReminderEnabled = b
	case KeyReminderTime:
		s.ReminderTime = value
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	*s = s.Normalized()
	return s.Validate()
}

// Settings loads the stored preferences. Unset keys take their defaults, as
// do stored values that no longer parse.
func (t *Tracker) Settings(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()

	for _, key := range SettingKeys {
		value, err := t.store.GetSetting(ctx, key)
		if storage.IsNotFound(err) {
			continue
		}
		if err != nil {
			t.storageFailed("get setting", err)
			return Settings{}, err
		}

		candidate := settings
		if err := candidate.Set(key, value); err != nil {
			t.logger.Warn("ignoring stored setting", zap.String("key", key), zap.String("value", value), zap.Error(err))
			continue
		}
		settings = candidate
	}
	return settings, nil
}

// UpdateSettings validates and stores every field of s in normalized form.
func (t *Tracker) UpdateSettings(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.Normalized()

	for _, key := range SettingKeys {
		value, _ := s.Get(key)
		if err := t.store.SetSetting(ctx, key, value); err != nil {
			t.storageFailed("set setting", err)
			return err
		}
	}
	t.logger.Info("settings updated",
		zap.String("theme", string(s.Theme)),
		zap.Bool("reminderEnabled", s.ReminderEnabled),
		zap.String("reminderTime", s.ReminderTime),
	)
	return nil
}

// UpdateSetting changes a single key.
func (t *Tracker) UpdateSetting(ctx context.Context, key, value string) (Settings, error) {
	current, err := t.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := current.Set(key, value); err != nil {
		return Settings{}, err
	}
	if err := t.UpdateSettings(ctx, current); err != nil {
		return Settings{}, err
	}
	return current, nil
}

// ResetSettings removes every stored preference so defaults apply again.
func (t *Tracker) ResetSettings(ctx context.Context) error {
	for _, key := range SettingKeys {
		if err := t.store.DeleteSetting(ctx, key); err != nil {
			t.storageFailed("delete setting", err)
			return err
		}
	}
	return nil
}
