package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt formats validation errors
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings normalises driver names

	"github.com/joho/godotenv" // godotenv loads .env files into the process environment
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, and a float for the simulated payment success probability.
type Config struct {
	Env                string  // application environment (e.g. "dev", "prod")
	Port               string  // HTTP port to listen on
	DBDriver           string  // mysql | sqlite
	DBUser             string  // database username
	DBPass             string  // database password (optional)
	DBHost             string  // database host address
	DBPort             string  // database port number
	DBName             string  // database name
	SQLitePath         string  // database file when DBDriver is sqlite
	AutoMigrate        bool    // apply pending migrations on start-up
	JWTSecret          string  // secret used to sign JWTs
	AccessTTLMin       int     // access token time-to-live in minutes
	BcryptCost         int     // bcrypt cost for password hashing
	PaymentSuccessRate float64 // probability that a simulated payment settles
	RabbitMQURL        string  // broker URL; empty disables event publishing
	LogDir             string  // directory for JSON log files; empty disables the file sink
	LogLevel           string  // DEBUG | INFO | WARN | ERROR
	AdminUsername      string  // bootstrap admin account, created at start-up when set
	AdminEmail         string  // bootstrap admin email
	AdminPassword      string  // bootstrap admin password
}

// LookupFunc matches the signature of os.LookupEnv so tests can supply
// their own environment.
type LookupFunc func(key string) (string, bool)

// Load reads an optional .env file, then builds the Config from the process
// environment.  Invalid or missing required values cause the program to
// exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // a missing .env file is fine; real env vars still apply
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Parse builds a Config from the given lookup function and validates it.
func Parse(lookup LookupFunc) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Env:                e.str("APP_ENV", "dev"),
		Port:               e.str("APP_PORT", "8080"),
		DBDriver:           strings.ToLower(e.str("DB_DRIVER", DriverMySQL)),
		DBPass:             e.str("DB_PASS", ""),
		AutoMigrate:        e.boolean("DB_AUTO_MIGRATE", true),
		JWTSecret:          e.must("JWT_SECRET"),
		AccessTTLMin:       e.integer("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:         e.integer("BCRYPT_COST", 10),
		PaymentSuccessRate: e.float("PAYMENT_SUCCESS_RATE", 0.8),
		RabbitMQURL:        e.str("RABBITMQ_URL", e.str("AMQP_URL", "")),
		LogDir:             e.str("LOG_DIR", ""),
		LogLevel:           strings.ToUpper(e.str("LOG_LEVEL", "INFO")),
		AdminUsername:      e.str("ADMIN_USERNAME", ""),
		AdminEmail:         e.str("ADMIN_EMAIL", ""),
		AdminPassword:      e.str("ADMIN_PASSWORD", ""),
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = e.must("DB_USER")
		cfg.DBHost = e.must("DB_HOST")
		cfg.DBPort = e.str("DB_PORT", "3306")
		cfg.DBName = e.must("DB_NAME")
	case DriverSQLite:
		cfg.SQLitePath = e.must("SQLITE_PATH")
	default:
		e.fail("DB_DRIVER", "unsupported driver %q", cfg.DBDriver)
	}
	if cfg.PaymentSuccessRate < 0 || cfg.PaymentSuccessRate > 1 {
		e.fail("PAYMENT_SUCCESS_RATE", "must be between 0 and 1")
	}
	if cfg.AccessTTLMin <= 0 {
		e.fail("ACCESS_TOKEN_TTL_MIN", "must be positive")
	}
	if cfg.AdminUsername != "" && (cfg.AdminEmail == "" || cfg.AdminPassword == "") {
		e.fail("ADMIN_USERNAME", "ADMIN_EMAIL and ADMIN_PASSWORD are required with it")
	}
	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, nil
}

// env accumulates the first validation error so Parse can report it after
// reading every variable.
type env struct {
	lookup LookupFunc
	err    error
}

func (e *env) fail(key, format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("%s: %s", key, fmt.Sprintf(format, args...))
	}
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

// must retrieves the value of a required environment variable and records
// an error when it is unset or empty.
func (e *env) must(key string) string {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		e.fail(key, "missing required env var")
	}
	return v
}

func (e *env) integer(key string, def int) int {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		e.fail(key, "invalid int %q", s)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		e.fail(key, "invalid number %q", s)
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		e.fail(key, "invalid bool %q", s)
		return def
	}
	return b
}
