package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// OAuthProviderConfig holds the client credentials for one social sign-on
// provider.  Empty values mean the provider is not configured and its
// routes will reject requests.
type OAuthProviderConfig struct {
	ClientID     string // OAuth client id issued by the provider
	ClientSecret string // OAuth client secret
	CallbackURL  string // redirect URL registered with the provider
}

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing

	Google    OAuthProviderConfig // Google sign-on credentials
	Facebook  OAuthProviderConfig // Facebook sign-on credentials
	Instagram OAuthProviderConfig // Instagram sign-on credentials

	S3Endpoint  string // object storage endpoint (host:port)
	S3AccessKey string // object storage access key
	S3SecretKey string // object storage secret key
	S3Bucket    string // bucket that holds uploaded media
	S3UseSSL    bool   // whether to talk to the endpoint over TLS
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  OAuth and object
// storage values are optional so the server can run without those
// integrations in development.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),  // environment (dev/test/prod)
		Port:           must("APP_PORT"), // port to bind the HTTP server
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   intOr("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: intOr("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     intOr("BCRYPT_COST", 10),

		Google:    providerFromEnv("GOOGLE"),
		Facebook:  providerFromEnv("FACEBOOK"),
		Instagram: providerFromEnv("INSTAGRAM"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true" || os.Getenv("S3_USE_SSL") == "1",
	}
}

// IsDev reports whether the server runs in development mode.  Error
// responses include internal detail only in this mode.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// providerFromEnv reads the three credential variables for one OAuth
// provider, e.g. GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET / GOOGLE_CALLBACK_URL.
func providerFromEnv(prefix string) OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		CallbackURL:  os.Getenv(prefix + "_CALLBACK_URL"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr retrieves an integer environment variable, falling back to def when
// the variable is unset.  A present but malformed value is a fatal error.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
