package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredentials se devuelve cuando no se configuraron las credenciales de Facturama.
// No existe un valor por defecto: el proceso no debe arrancar sin ellas.
var ErrMissingCredentials = errors.New("config: FACTURAMA_USERNAME y FACTURAMA_PASSWORD son obligatorios")

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	HTTP      HTTPConfig
	Facturama FacturamaConfig
	Issuer    IssuerConfig
	Storage   StorageConfig
	Jobs      JobsConfig
	Redis     RedisConfig
	Auth      AuthConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	ForceIPv4   bool // Docker suele no tener IPv6
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FacturamaConfig credenciales y tiempos de espera del API de Facturama.
type FacturamaConfig struct {
	BaseURL         string
	Username        string
	Password        string
	DownloadTimeout time.Duration // por intento de descarga PDF/XML
	SubmitTimeout   time.Duration // total para la creación del complemento
	ConnectTimeout  time.Duration
}

// IssuerConfig datos fijos del emisor que firma los complementos de pago.
type IssuerConfig struct {
	RFC             string
	Name            string
	FiscalRegime    string
	ExpeditionPlace string // código postal de expedición
}

// StorageConfig ubicación del almacén local de PDF/XML.
type StorageConfig struct {
	ArtifactsDir string
}

// JobsConfig parámetros de la cola de generación de complementos.
type JobsConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	LockTTL   time.Duration
}

// RedisConfig opcional: si Addr está vacío el bloqueo por factura es en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled indica si se configuró Redis.
func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// AuthConfig opcional: si Secret está vacío la API queda abierta.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Enabled indica si se exige Bearer Token en las rutas de facturas.
func (c AuthConfig) Enabled() bool { return c.Secret != "" }

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env / config.env).
// Las env vars tienen prioridad. Falla si faltan las credenciales de Facturama.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "complementos-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "complementos"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 10)),
			ForceIPv4:   getBool(v, "DB_FORCE_IPV4", false),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 3000),
			CORSOrigins: getString(v, "HTTP_CORS_ORIGINS", "*"),
		},
		Facturama: FacturamaConfig{
			BaseURL:         strings.TrimRight(getString(v, "FACTURAMA_BASE_URL", "https://apisandbox.facturama.mx"), "/"),
			Username:        getString(v, "FACTURAMA_USERNAME", ""),
			Password:        getString(v, "FACTURAMA_PASSWORD", ""),
			DownloadTimeout: getSeconds(v, "FACTURAMA_DOWNLOAD_TIMEOUT_SECONDS", 30),
			SubmitTimeout:   getSeconds(v, "FACTURAMA_SUBMIT_TIMEOUT_SECONDS", 120),
			ConnectTimeout:  getSeconds(v, "FACTURAMA_CONNECT_TIMEOUT_SECONDS", 30),
		},
		Issuer: IssuerConfig{
			RFC:             getString(v, "ISSUER_RFC", "XIA190128J61"),
			Name:            getString(v, "ISSUER_NAME", "XENON INDUSTRIAL ARTICLES"),
			FiscalRegime:    getString(v, "ISSUER_FISCAL_REGIME", "601"),
			ExpeditionPlace: getString(v, "EXPEDITION_PLACE", "76343"),
		},
		Storage: StorageConfig{
			ArtifactsDir: getString(v, "ARTIFACTS_DIR", "./invoices"),
		},
		Jobs: JobsConfig{
			Workers:   getInt(v, "JOB_WORKERS", 4),
			QueueSize: getInt(v, "JOB_QUEUE_SIZE", 100),
			Timeout:   getSeconds(v, "JOB_TIMEOUT_SECONDS", 180),
			LockTTL:   getSeconds(v, "JOB_LOCK_TTL_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret: getString(v, "AUTH_JWT_SECRET", ""),
			Issuer: getString(v, "AUTH_JWT_ISSUER", "complementos-api"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba los valores obligatorios y los rangos mínimos.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Facturama.Username) == "" || strings.TrimSpace(c.Facturama.Password) == "" {
		return ErrMissingCredentials
	}
	if _, err := url.ParseRequestURI(c.Facturama.BaseURL); err != nil {
		return fmt.Errorf("config: FACTURAMA_BASE_URL inválida: %w", err)
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("config: JOB_WORKERS debe ser >= 1, recibido %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 1 {
		return fmt.Errorf("config: JOB_QUEUE_SIZE debe ser >= 1, recibido %d", c.Jobs.QueueSize)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch raw := v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func getSeconds(v *viper.Viper, key string, def int) time.Duration {
	n := getInt(v, key, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
