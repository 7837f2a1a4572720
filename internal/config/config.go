package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// DatabaseConfig holds connection settings for the SQL backends.
type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// JWTConfig holds the token verification secret.
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// KafkaConfig holds broker settings. A disabled config publishes nothing.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// RoomConfig is one room of the catalog file.
type RoomConfig struct {
	ID          string   `mapstructure:"id"`
	RoomNumber  string   `mapstructure:"room_number"`
	Floor       int      `mapstructure:"floor"`
	Category    string   `mapstructure:"category"`
	Beds        int      `mapstructure:"beds"`
	Bathrooms   int      `mapstructure:"bathrooms"`
	HasAC       bool     `mapstructure:"has_ac"`
	Description string   `mapstructure:"description"`
	Problems    []string `mapstructure:"problems"`
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	Timezone    *time.Location
	Storage     string
	DBConfig    DatabaseConfig
	JWTConfig   JWTConfig
	KafkaConfig KafkaConfig
	Rooms       []RoomConfig
}

// Load reads configuration from an optional .env file, BOOKING_* environment
// variables and the YAML file named by BOOKING_CONFIG_FILE.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigFile(v.GetString("config_file"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_file", "configs/booking.yaml")
	v.SetDefault("service_port", ":8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("storage", StorageMemory)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "booking_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.sqlite_path", "booking.db")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "")
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", v.GetString("timezone"), err)
	}

	storage := strings.ToLower(v.GetString("storage"))
	switch storage {
	case StorageMemory, StoragePostgres, StorageSQLite:
	default:
		return nil, fmt.Errorf("invalid storage %q, expected memory, postgres or sqlite", storage)
	}

	cfg := &ServiceConfig{
		Port:     v.GetString("service_port"),
		AppEnv:   v.GetString("app_env"),
		Timezone: loc,
		Storage:  storage,
		DBConfig: DatabaseConfig{
			Host:       v.GetString("db.host"),
			Port:       v.GetString("db.port"),
			User:       v.GetString("db.user"),
			Password:   v.GetString("db.password"),
			DBName:     v.GetString("db.name"),
			SSLMode:    v.GetString("db.sslmode"),
			SQLitePath: v.GetString("db.sqlite_path"),
		},
		JWTConfig: JWTConfig{
			Secret:         v.GetString("jwt.secret"),
			AccessTokenTTL: v.GetDuration("jwt.access_token_ttl"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:     v.GetBool("kafka.enabled"),
			Brokers:     splitList(v.GetString("kafka.brokers")),
			GroupPrefix: v.GetString("kafka.group_prefix"),
		},
	}
	if cfg.JWTConfig.Secret == "" {
		return nil, errors.New("BOOKING_JWT_SECRET is required")
	}

	if err := v.UnmarshalKey("rooms", &cfg.Rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return cfg, nil
}

// RoomCatalog converts the configured rooms to domain rooms, validating each.
func (c *ServiceConfig) RoomCatalog() ([]roomDomain.Room, error) {
	rooms := make([]roomDomain.Room, len(c.Rooms))
	for i, rc := range c.Rooms {
		category, err := roomDomain.ParseCategory(rc.Category)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", rc.ID, err)
		}
		number := rc.RoomNumber
		if number == "" {
			number = rc.ID
		}
		rooms[i] = roomDomain.Room{
			ID:          rc.ID,
			RoomNumber:  number,
			Floor:       rc.Floor,
			Category:    category,
			Beds:        rc.Beds,
			Bathrooms:   rc.Bathrooms,
			HasAC:       rc.HasAC,
			Description: rc.Description,
			Problems:    rc.Problems,
		}
	}
	return rooms, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
