package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings holds the runtime configuration of the feed service.
// Values come from defaults, an optional settings file and ETHIOCAL_* environment
// variables, in increasing order of precedence.
type Settings struct {
	Port           int              `mapstructure:"port" validate:"required,gte=1,lte=65535"`
	Language       string           `mapstructure:"language" validate:"required,oneof=en fr"`
	RefreshMinutes int              `mapstructure:"refresh_minutes" validate:"gte=0"`
	Source         SourceSettings   `mapstructure:"source"`
	Reminder       ReminderSettings `mapstructure:"reminder"`
}

// SourceSettings selects where contacts are read from.
type SourceSettings struct {
	Mode      string `mapstructure:"mode" validate:"required,oneof=local web"`
	LocalPath string `mapstructure:"local_path" validate:"required_if=Mode local"`
	URL       string `mapstructure:"url" validate:"required_if=Mode web"`
	User      string `mapstructure:"user"`
}

// ReminderSettings describes the optional alarm attached to every event.
type ReminderSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	Value     int    `mapstructure:"value" validate:"gte=0"`
	Unit      string `mapstructure:"unit" validate:"oneof=d h m"`
	Direction string `mapstructure:"direction" validate:"oneof=before after"`
}

// LoadSettings reads the settings file at path (optional) and the environment.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
		slog.Debug(MsgSettingsFile,
			LogKeyComponent, CompConfig,
			LogKeyFile, v.ConfigFileUsed())
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings against their declared constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsInvalid, err)
	}
	return nil
}

// ReminderTrigger converts the reminder settings into an ISO8601 duration
// suitable for a VALARM TRIGGER (e.g. "-P1D", "-PT2H"). It returns "" when disabled.
func (s *Settings) ReminderTrigger() string {
	r := s.Reminder
	if !r.Enabled {
		return ""
	}

	sign := ISOPeriodPrefix
	if r.Direction == DirBefore {
		sign = ISONegativePrefix
	}

	switch r.Unit {
	case UnitHours:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOHour)
	case UnitMinutes:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISODay)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyRefreshMinutes, DefaultRefreshMin)
	v.SetDefault(KeySourceMode, SourceModeLocal)
	v.SetDefault(KeySourceLocalPath, "")
	v.SetDefault(KeySourceURL, "")
	v.SetDefault(KeySourceUser, "")
	v.SetDefault(KeyReminderEnabled, false)
	v.SetDefault(KeyReminderValue, DefaultReminderValue)
	v.SetDefault(KeyReminderUnit, UnitDays)
	v.SetDefault(KeyReminderDirection, DirBefore)
}
