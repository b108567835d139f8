// Package config loads the process configuration from LOVECHEDULE_*
// environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"lovechedule.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Seoul"`

	Holiday struct {
		ServiceKey  string `env:"SERVICE_KEY"`
		RefreshCron string `env:"REFRESH_CRON" envDefault:"0 3 1 * *"`
	} `envPrefix:"HOLIDAY_"`

	Notify struct {
		Cron string `env:"CRON" envDefault:"0 9 * * *"`
	} `envPrefix:"NOTIFY_"`

	Push struct {
		VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
		VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	} `envPrefix:"PUSH_"`

	Weather struct {
		Latitude        string `env:"LATITUDE" envDefault:"37.5665"`
		Longitude       string `env:"LONGITUDE" envDefault:"126.9780"`
		TemperatureUnit string `env:"TEMPERATURE_UNIT" envDefault:"celsius"`
		RefreshCron     string `env:"REFRESH_CRON" envDefault:"*/30 * * * *"`
	} `envPrefix:"WEATHER_"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: "LOVECHEDULE_"}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
