// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Images   ImagesConfig
	Report   ReportConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// StorageConfig holds the S3-compatible object storage connection info.
// DataPrefix is where input JSON documents live; OutputPrefix is where
// finished reports are uploaded.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	DataPrefix   string
	OutputPrefix string
	PresignTTL   int
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	JobTTLSeconds int
}

// DatabaseConfig configures the optional run-history store. History is
// disabled when Host is empty.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ImagesConfig struct {
	BaseURL        string
	TimeoutSeconds int
	TempDir        string
}

// ReportConfig carries the engine defaults a run starts from.
type ReportConfig struct {
	LargeDatasetThreshold   int
	PriceDetectionThreshold float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "shelf-data")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_DATA_PREFIX", "projects")
		viper.SetDefault("STORAGE_OUTPUT_PREFIX", "output")
		viper.SetDefault("STORAGE_PRESIGN_TTL_SECONDS", 3600)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_JOB_TTL_SECONDS", 86400)
		viper.SetDefault("DB_HOST", "")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "reportgen")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("IMAGES_BASE_URL", "")
		viper.SetDefault("IMAGES_TIMEOUT_SECONDS", 15)
		viper.SetDefault("IMAGES_TEMP_DIR", "./data/tmp/images")
		viper.SetDefault("REPORT_LARGE_DATASET_THRESHOLD", 400000)
		viper.SetDefault("REPORT_PRICE_DETECTION_THRESHOLD", 0.5)

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("IMAGES_TEMP_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Storage: StorageConfig{
				Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:       viper.GetString("STORAGE_BUCKET"),
				Region:       viper.GetString("STORAGE_REGION"),
				UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
				DataPrefix:   viper.GetString("STORAGE_DATA_PREFIX"),
				OutputPrefix: viper.GetString("STORAGE_OUTPUT_PREFIX"),
				PresignTTL:   viper.GetInt("STORAGE_PRESIGN_TTL_SECONDS"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				JobTTLSeconds: viper.GetInt("CACHE_JOB_TTL_SECONDS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Images: ImagesConfig{
				BaseURL:        viper.GetString("IMAGES_BASE_URL"),
				TimeoutSeconds: viper.GetInt("IMAGES_TIMEOUT_SECONDS"),
				TempDir:        viper.GetString("IMAGES_TEMP_DIR"),
			},
			Report: ReportConfig{
				LargeDatasetThreshold:   viper.GetInt("REPORT_LARGE_DATASET_THRESHOLD"),
				PriceDetectionThreshold: viper.GetFloat64("REPORT_PRICE_DETECTION_THRESHOLD"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
