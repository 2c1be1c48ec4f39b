// Package config carga la configuración desde defaults, un archivo opcional
// (CONFIG_FILE) y variables de entorno, en ese orden de prioridad creciente.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppName string
	Port    string
	// TZName es la zona del reloj de pared de los pacientes. Vacío = local del proceso.
	TZName string

	LogLevel  string
	LogFormat string

	DBDSN         string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AlarmPollInterval time.Duration
	AlarmDueWindow    time.Duration
	AlarmSoundAsset   string
	AlarmPlayer       string

	OdinBaseURL string
	OdinAPIKey  string
}

var keys = []string{
	"APP_NAME", "PORT", "TZ_NAME",
	"LOG_LEVEL", "LOG_FORMAT",
	"DB_DSN", "DB_AUTO_MIGRATE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"ALARM_POLL_INTERVAL", "ALARM_DUE_WINDOW", "ALARM_SOUND_ASSET", "ALARM_PLAYER",
	"ODIN_BASE_URL", "ODIN_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "dose-tracker")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALARM_POLL_INTERVAL", "1s")
	v.SetDefault("ALARM_DUE_WINDOW", "1h")
	v.SetDefault("ALARM_SOUND_ASSET", "assets/alarm.mp3")
	v.SetDefault("ALARM_PLAYER", "mpg123 -q")
}

// Load lee CONFIG_FILE (si está) y el entorno.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		AppName: strings.TrimSpace(v.GetString("APP_NAME")),
		Port:    strings.TrimSpace(v.GetString("PORT")),
		TZName:  strings.TrimSpace(v.GetString("TZ_NAME")),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DBDSN:         strings.TrimSpace(v.GetString("DB_DSN")),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),

		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AlarmPollInterval: v.GetDuration("ALARM_POLL_INTERVAL"),
		AlarmDueWindow:    v.GetDuration("ALARM_DUE_WINDOW"),
		AlarmSoundAsset:   strings.TrimSpace(v.GetString("ALARM_SOUND_ASSET")),
		AlarmPlayer:       strings.TrimSpace(v.GetString("ALARM_PLAYER")),

		OdinBaseURL: strings.TrimSpace(v.GetString("ODIN_BASE_URL")),
		OdinAPIKey:  v.GetString("ODIN_API_KEY"),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.AlarmPollInterval <= 0 {
		errs = append(errs, errors.New("ALARM_POLL_INTERVAL must be positive"))
	}
	if c.AlarmDueWindow <= 0 {
		errs = append(errs, errors.New("ALARM_DUE_WINDOW must be positive"))
	}
	if c.TZName != "" {
		if _, err := time.LoadLocation(c.TZName); err != nil {
			errs = append(errs, fmt.Errorf("TZ_NAME: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Location resuelve TZ_NAME; vacío = time.Local.
func (c Config) Location() *time.Location {
	if c.TZName == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		return time.Local
	}
	return loc
}
