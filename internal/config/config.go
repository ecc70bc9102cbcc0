package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Redis struct {
		Host           string `env:"HOST" envDefault:"localhost"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		LeaveCacheTTL  int    `env:"LEAVE_CACHE_TTL" envDefault:"300"` // seconds
	} `envPrefix:"REDIS_"`
	Generator struct {
		// Mode selects between the in-process optimizer and a remote service.
		Mode           string  `env:"MODE" envDefault:"local"` // local | remote
		RemoteURL      string  `env:"REMOTE_URL"`
		RemoteTimeout  int     `env:"REMOTE_TIMEOUT" envDefault:"30"`
		PopulationSize int     `env:"POPULATION_SIZE" envDefault:"80"`
		MaxGenerations int     `env:"MAX_GENERATIONS" envDefault:"200"`
		CrossoverRate  float64 `env:"CROSSOVER_RATE" envDefault:"0.8"`
		MutationRate   float64 `env:"MUTATION_RATE" envDefault:"0.05"`
		EliteCount     int     `env:"ELITE_COUNT" envDefault:"4"`
	} `envPrefix:"GENERATOR_"`
	Worker struct {
		// Cron expression for the rolling-horizon template application job.
		ApplySpec    string `env:"APPLY_SPEC" envDefault:"0 2 * * *"`
		HorizonWeeks int    `env:"HORIZON_WEEKS" envDefault:"4"`
		Timezone     string `env:"TIMEZONE" envDefault:"Europe/Paris"`
	} `envPrefix:"WORKER_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// Only surface the first error to keep the log readable.
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
