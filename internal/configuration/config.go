package configuration

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultConfigPath   = "config/config.dev.json"
	configPathEnv       = "WORKPULSE_CONFIG"
	defaultAdminPrefix  = "admin"
	defaultSweepSeconds = 60
	defaultPendingTTL   = 30
)

type MongoConfig struct {
	Uri                   string `json:"uri"`
	Database              string `json:"database"`
	RequestsCollection    string `json:"requestsCollection"`
	MessagesCollection    string `json:"messagesCollection"`
	ConnectTimeoutSeconds int    `json:"connectTimeoutSeconds"`
}

type RedisConfig struct {
	Url               string `json:"url"`
	DB                int    `json:"db"`
	PresenceTTLSecond int    `json:"presenceTtlSeconds"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socketRoute"`
	AllowedOrigins []string `json:"allowedOrigins"`
	Environment    string   `json:"environment"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwtSecret"`
}

type LiveKitConfig struct {
	Url            string `json:"url"`
	ApiKey         string `json:"apiKey"`
	ApiSecret      string `json:"apiSecret"`
	TokenTTLMinute int    `json:"tokenTtlMinutes"`
}

// MonitoringConfig drives the coordinator and the expiry sweeper.
// A zero pending TTL means the default, a negative one disables the rule.
// A zero session max age disables session expiry.
type MonitoringConfig struct {
	AdminPrefix          string `json:"adminPrefix"`
	PendingTTLMinutes    int    `json:"pendingRequestTtlMinutes"`
	SessionMaxAgeMinutes int    `json:"sessionMaxAgeMinutes"`
	SweepIntervalSeconds int    `json:"sweepIntervalSeconds"`
}

type Config struct {
	Mongo      MongoConfig      `json:"mongo"`
	Redis      RedisConfig      `json:"redis"`
	Server     ServerConfig     `json:"server"`
	Auth       AuthConfig       `json:"auth"`
	LiveKit    LiveKitConfig    `json:"livekit"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// ConfigPath returns the config file location, honouring WORKPULSE_CONFIG.
func ConfigPath() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	return defaultConfigPath
}

func LoadConfig(config_path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Mongo.Uri, "MONGO_URI")
	overrideString(&c.Mongo.Database, "MONGO_DATABASE")
	overrideString(&c.Redis.Url, "REDIS_URL")
	overrideInt(&c.Server.AppPort, "APP_PORT")
	overrideInt(&c.Server.SocketPort, "SOCKET_PORT")
	overrideString(&c.Server.Environment, "ENVIRONMENT")
	overrideString(&c.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&c.LiveKit.Url, "LIVEKIT_URL")
	overrideString(&c.LiveKit.ApiKey, "LIVEKIT_API_KEY")
	overrideString(&c.LiveKit.ApiSecret, "LIVEKIT_API_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Mongo.RequestsCollection == "" {
		c.Mongo.RequestsCollection = "monitoringrequests"
	}
	if c.Mongo.MessagesCollection == "" {
		c.Mongo.MessagesCollection = "messages"
	}
	if c.Mongo.ConnectTimeoutSeconds <= 0 {
		c.Mongo.ConnectTimeoutSeconds = 10
	}
	if c.Redis.PresenceTTLSecond <= 0 {
		c.Redis.PresenceTTLSecond = 120
	}
	if c.Server.SocketRoute == "" {
		c.Server.SocketRoute = "ws"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.LiveKit.TokenTTLMinute <= 0 {
		c.LiveKit.TokenTTLMinute = 360
	}
	if c.Monitoring.AdminPrefix == "" {
		c.Monitoring.AdminPrefix = defaultAdminPrefix
	}
	if c.Monitoring.PendingTTLMinutes == 0 {
		c.Monitoring.PendingTTLMinutes = defaultPendingTTL
	}
	if c.Monitoring.SweepIntervalSeconds <= 0 {
		c.Monitoring.SweepIntervalSeconds = defaultSweepSeconds
	}
}

func (m MonitoringConfig) PendingTTL() time.Duration {
	if m.PendingTTLMinutes < 0 {
		return 0
	}
	return time.Duration(m.PendingTTLMinutes) * time.Minute
}

func (m MonitoringConfig) SessionMaxAge() time.Duration {
	if m.SessionMaxAgeMinutes < 0 {
		return 0
	}
	return time.Duration(m.SessionMaxAgeMinutes) * time.Minute
}

func (m MonitoringConfig) SweepInterval() time.Duration {
	return time.Duration(m.SweepIntervalSeconds) * time.Second
}

func (r RedisConfig) PresenceTTL() time.Duration {
	return time.Duration(r.PresenceTTLSecond) * time.Second
}

func (l LiveKitConfig) TokenTTL() time.Duration {
	return time.Duration(l.TokenTTLMinute) * time.Minute
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
