package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/playmatatu/poolsim/internal/game"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Sessions
	SessionIdleMinutes    int
	ReaperIntervalSeconds int
	SnapshotTTLMinutes    int
	MaxSessions           int

	// Table defaults
	NumBalls           int
	ShotImpulse        float64
	FrictionMu         float64
	FrictionAlpha      float64
	FrictionBeta       float64
	TimeStep           float64
	BonusUnit          float64
	CuePenalty         float64
	TimePenalty        float64
	MaxBallsPerSession int

	// Security
	JWTSecret       string
	AuthRequired    bool
	TokenTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Sessions
		SessionIdleMinutes:    getEnvInt("SESSION_IDLE_MINUTES", 30),
		ReaperIntervalSeconds: getEnvInt("SESSION_REAPER_INTERVAL_SECONDS", 60),
		SnapshotTTLMinutes:    getEnvInt("SNAPSHOT_TTL_MINUTES", 60),
		MaxSessions:           getEnvInt("MAX_SESSIONS", 256),

		// Table defaults
		NumBalls:           getEnvInt("POOL_NUM_BALLS", 2),
		ShotImpulse:        getEnvFloat("POOL_SHOT_IMPULSE", game.ShotImpulse),
		FrictionMu:         getEnvFloat("POOL_FRICTION_MU", game.FrictionMu),
		FrictionAlpha:      getEnvFloat("POOL_FRICTION_ALPHA", game.FrictionAlpha),
		FrictionBeta:       getEnvFloat("POOL_FRICTION_BETA", game.FrictionBeta),
		TimeStep:           getEnvFloat("POOL_TIMESTEP", game.TimeStep),
		BonusUnit:          getEnvFloat("POOL_BONUS_UNIT", game.BonusUnit),
		CuePenalty:         getEnvFloat("POOL_CUE_PENALTY", game.CuePenalty),
		TimePenalty:        getEnvFloat("POOL_TIME_PENALTY", game.TimePenalty),
		MaxBallsPerSession: getEnvInt("POOL_MAX_BALLS", 16),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AuthRequired:    getEnvBool("AUTH_REQUIRED", false),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 60),
	}
}

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	if c.AuthRequired && c.JWTSecret == "" {
		// jwt accepts HS256 tokens signed with an empty key, so anyone could mint one
		return fmt.Errorf("AUTH_REQUIRED is set but JWT_SECRET is empty")
	}
	return nil
}

// TableConfig builds the table configuration for an env with n balls, applying the
// physics and reward overrides from the environment. n <= 0 selects NumBalls.
func (c *Config) TableConfig(n int) game.Config {
	if n <= 0 {
		n = c.NumBalls
	}
	tc := game.DefaultConfig(n)
	tc.ShotImpulse = c.ShotImpulse
	tc.FrictionMu = c.FrictionMu
	tc.FrictionAlpha = c.FrictionAlpha
	tc.FrictionBeta = c.FrictionBeta
	tc.TimeStep = c.TimeStep
	tc.BonusUnit = c.BonusUnit
	tc.CuePenalty = c.CuePenalty
	tc.TimePenalty = c.TimePenalty
	tc.Debug = c.Environment == "development"
	return tc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
