package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"

	EnvConfigPath     = "CHECKOUT_CONFIG"
	DefaultConfigPath = "config.yaml"
)

type Global struct {
	BindAddr       string   `mapstructure:"bindAddr"`
	BindPort       int      `mapstructure:"bindPort"`
	LogLevel       string   `mapstructure:"logLevel"`
	SiteURL        string   `mapstructure:"siteURL"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type Stripe struct {
	SecretKey      string `mapstructure:"secretKey"`
	PublishableKey string `mapstructure:"publishableKey"`
	SuccessPath    string `mapstructure:"successPath"`
	CancelPath     string `mapstructure:"cancelPath"`
	VerifyPrices   bool   `mapstructure:"verifyPrices"`
}

type Postgres struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	DBName  string `mapstructure:"dbName"`
	Options string `mapstructure:"options"`
}

// ConnString builds the pgx connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf(
		"postgres://%v:%v@%v:%v/%v?%v",
		url.QueryEscape(p.User),
		url.QueryEscape(p.Pass),
		p.Host,
		p.Port,
		p.DBName,
		p.Options,
	)
}

type Firestore struct {
	ProjectID       string `mapstructure:"projectID"`
	Collection      string `mapstructure:"collection"`
	CredentialsFile string `mapstructure:"credentialsFile"`
}

type Store struct {
	Driver    string    `mapstructure:"driver"`
	Postgres  Postgres  `mapstructure:"postgres"`
	Firestore Firestore `mapstructure:"firestore"`
}

type Checkout struct {
	CatalogPath string `mapstructure:"catalogPath"`
	ContactURL  string `mapstructure:"contactURL"`
}

type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type Config struct {
	Global   Global   `mapstructure:"global"`
	Stripe   Stripe   `mapstructure:"stripe"`
	Store    Store    `mapstructure:"store"`
	Checkout Checkout `mapstructure:"checkout"`
	Sentry   Sentry   `mapstructure:"sentry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("global.bindAddr", "0.0.0.0")
	v.SetDefault("global.bindPort", 8080)
	v.SetDefault("global.logLevel", "info")
	v.SetDefault("stripe.successPath", "/success")
	v.SetDefault("stripe.cancelPath", "/#pricing")
	v.SetDefault("store.driver", DriverFirestore)
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.options", "sslmode=disable")
	v.SetDefault("store.firestore.collection", "customers")
	v.SetDefault("checkout.contactURL", "/#contact")
}

// LoadConfig reads the yaml config at CHECKOUT_CONFIG (or ./config.yaml)
// and applies CHECKOUT_* environment overrides. A missing config file is
// fine as long as the environment provides the required values.
func LoadConfig() (Config, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadConfigFile(path)
}

// LoadConfigFile is LoadConfig with an explicit path.
func LoadConfigFile(path string) (conf Config, err error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return conf, fmt.Errorf("failed to read config %v: %w", path, err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about, so the
	// required secrets are bound explicitly
	for _, key := range []string{
		"stripe.secretKey",
		"stripe.publishableKey",
		"global.siteURL",
		"store.postgres.host",
		"store.postgres.user",
		"store.postgres.pass",
		"store.postgres.dbName",
		"store.firestore.projectID",
		"store.firestore.credentialsFile",
		"sentry.dsn",
	} {
		if err := v.BindEnv(key); err != nil {
			return conf, fmt.Errorf("failed to bind env for %v: %w", key, err)
		}
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	conf.Global.SiteURL = strings.TrimRight(conf.Global.SiteURL, "/")

	return conf, conf.Validate()
}

// Validate checks the values the service cannot start without.
func (c Config) Validate() error {
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secretKey is required")
	}
	if c.Global.SiteURL == "" {
		return fmt.Errorf("global.siteURL is required")
	}
	if _, err := url.ParseRequestURI(c.Global.SiteURL); err != nil {
		return fmt.Errorf("global.siteURL %q is not a valid url: %w", c.Global.SiteURL, err)
	}
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.Postgres.Host == "" || c.Store.Postgres.DBName == "" {
			return fmt.Errorf("store.postgres.host and store.postgres.dbName are required")
		}
	case DriverFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return fmt.Errorf("store.firestore.projectID is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// SuccessURL is where the payment processor sends the user after paying.
func (c Config) SuccessURL() string {
	return c.Global.SiteURL + c.Stripe.SuccessPath
}

// CancelURL is where the payment processor sends the user after
// abandoning the hosted page.
func (c Config) CancelURL() string {
	return c.Global.SiteURL + c.Stripe.CancelPath
}

// IsOriginAllowed reports whether the request origin host may call the
// JSON API. The site's own host is always allowed.
func (c Config) IsOriginAllowed(host string) bool {
	if host == "" {
		return false
	}
	if site, err := url.Parse(c.Global.SiteURL); err == nil && site.Host == host {
		return true
	}
	for _, origin := range c.Global.AllowedOrigins {
		if origin == "*" || origin == host {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == host {
			return true
		}
	}
	return false
}
