package config

import (
	_ "embed"
	"strings"
)

const (
	CurrentEnvProd    = "prod"
	CurrentEnvStaging = "staging"
)

//go:embed current-env
var CurrentEnv string

func init() {
	CurrentEnv = strings.TrimSpace(CurrentEnv)

	if CurrentEnv != CurrentEnvProd && CurrentEnv != CurrentEnvStaging {
		panic("invalid environment")
	}
}

// Common struct for values that differ between staging and production environments
type Differs[T any] struct {
	Staging T `yaml:"staging" comment:"Staging value" validate:"required"`
	Prod    T `yaml:"prod" comment:"Production value" validate:"required"`
}

func (d *Differs[T]) Parse() T {
	if CurrentEnv == CurrentEnvProd {
		return d.Prod
	} else if CurrentEnv == CurrentEnvStaging {
		return d.Staging
	} else {
		panic("invalid environment")
	}
}

type Config struct {
	Sites     Sites     `yaml:"sites" validate:"required"`
	Meta      Meta      `yaml:"meta" validate:"required"`
	Reminders Reminders `yaml:"reminders" validate:"required"`
}

type Sites struct {
	Frontend string          `yaml:"frontend" default:"https://app.randevu.fit" comment:"Frontend URL" validate:"required"`
	API      Differs[string] `yaml:"api" default:"https://api.randevu.fit" comment:"API URL" validate:"required"`
}

type Meta struct {
	PostgresURL      string          `yaml:"postgres_url" default:"postgresql:///randevu" comment:"Postgres URL" validate:"required"`
	RedisURL         string          `yaml:"redis_url" default:"redis://localhost:6379" comment:"Redis URL" validate:"required"`
	AmqpURL          string          `yaml:"amqp_url" default:"" comment:"AMQP URL for the notification fan-out exchange. Leave empty to disable publishing"`
	Port             Differs[string] `yaml:"port" default:":8081" comment:"Port to run the server on" validate:"required"`
	InternalAPIToken string          `yaml:"internal_api_token" default:"" comment:"Token the external scheduler must present on /tasks endpoints" validate:"required"`
}

type Reminders struct {
	JobSpec          string `yaml:"job_spec" default:"*/5 * * * *" comment:"Cron spec for the reminder batch cycle" validate:"required"`
	RunJobsInProcess bool   `yaml:"run_jobs_in_process" default:"true" comment:"Run the reminder batch cycle on an in-process cron schedule. Disable when an external scheduler drives /tasks"`
	Exchange         string `yaml:"exchange" default:"randevu.reminders" comment:"AMQP exchange reminder events are published to" validate:"required"`
}
