package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

func New() *Config {
	initLogging("info")

	// a missing .env is fine
	_ = godotenv.Load(".env")

	config := viper.New()

	// Default config
	b, _ := json.Marshal(Default())
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)

	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(defaultConfig))
	checkErr(config.MergeConfigMap(tmp.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")

	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")

	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	// Environment
	config.SetEnvPrefix("BITCHAT")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)
	config.AutomaticEnv()

	BindEnvs(config, Config{})

	c := &Config{}
	checkErr(config.Unmarshal(&c))

	initLogging(c.Level)

	return c
}

// Default returns the configuration used when no file or environment overrides a key.
func Default() Config {
	c := Config{
		Level:      "info",
		ConfigFile: "config.yaml",
	}

	c.Http.Addr = "0.0.0.0"
	c.Http.Port = 3000

	c.Store.Kind = StoreKindMongo
	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.DB = "bitchat"

	c.NATS.URL = "nats://localhost:4222"
	c.NATS.Subject = "bitchat"

	c.Media.MaxUploadSize = 16 * 1024 * 1024

	c.Typing.ExpiryMs = 3000

	c.Socket.PingIntervalSeconds = 25
	c.Socket.SendBuffer = 64
	c.Socket.EventsPerSecond = 20
	c.Socket.EventBurst = 40
	c.Socket.HandlerTimeoutSeconds = 15

	c.Status.TTLHours = 24

	c.Health.Bind = "0.0.0.0:9000"
	c.Monitoring.Bind = "0.0.0.0:9100"
	c.PProf.Bind = "127.0.0.1:9200"

	return c
}

func BindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)

	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)

		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}

		switch v.Kind() {
		case reflect.Struct:
			BindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type StoreKind string

const (
	StoreKindMongo  StoreKind = "mongo"
	StoreKindMemory StoreKind = "memory"
)

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`

	Http struct {
		Addr    string   `mapstructure:"addr" json:"addr"`
		Port    int      `mapstructure:"port" json:"port"`
		Origins []string `mapstructure:"origins" json:"origins"`
	} `mapstructure:"http" json:"http"`

	Store struct {
		Kind StoreKind `mapstructure:"kind" json:"kind"`
	} `mapstructure:"store" json:"store"`

	Mongo struct {
		URI      string `mapstructure:"uri" json:"uri"`
		Username string `mapstructure:"username" json:"username"`
		Password string `mapstructure:"password" json:"password"`
		DB       string `mapstructure:"db" json:"db"`
		Direct   bool   `mapstructure:"direct" json:"direct"`
	} `mapstructure:"mongo" json:"mongo"`

	NATS struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		URL     string `mapstructure:"url" json:"url"`
		Subject string `mapstructure:"subject" json:"subject"`
	} `mapstructure:"nats" json:"nats"`

	S3 struct {
		Enabled     bool   `mapstructure:"enabled" json:"enabled"`
		AccessToken string `mapstructure:"access_token" json:"access_token"`
		SecretKey   string `mapstructure:"secret_key" json:"secret_key"`
		Region      string `mapstructure:"region" json:"region"`
		Bucket      string `mapstructure:"bucket" json:"bucket"`
		Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
		Namespace   string `mapstructure:"namespace" json:"namespace"`
	} `mapstructure:"s3" json:"s3"`

	Media struct {
		PublicURL     string `mapstructure:"public_url" json:"public_url"`
		MaxUploadSize int    `mapstructure:"max_upload_size" json:"max_upload_size"`
		TempDir       string `mapstructure:"temp_dir" json:"temp_dir"`
	} `mapstructure:"media" json:"media"`

	Credentials struct {
		JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`
	} `mapstructure:"credentials" json:"credentials"`

	Typing struct {
		ExpiryMs int `mapstructure:"expiry_ms" json:"expiry_ms"`
	} `mapstructure:"typing" json:"typing"`

	Socket struct {
		PingIntervalSeconds   int     `mapstructure:"ping_interval_seconds" json:"ping_interval_seconds"`
		SendBuffer            int     `mapstructure:"send_buffer" json:"send_buffer"`
		EventsPerSecond       float64 `mapstructure:"events_per_second" json:"events_per_second"`
		EventBurst            int     `mapstructure:"event_burst" json:"event_burst"`
		HandlerTimeoutSeconds int     `mapstructure:"handler_timeout_seconds" json:"handler_timeout_seconds"`
	} `mapstructure:"socket" json:"socket"`

	Status struct {
		TTLHours int `mapstructure:"ttl_hours" json:"ttl_hours"`
	} `mapstructure:"status" json:"status"`

	Health struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"health" json:"health"`

	Monitoring struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`

	PProf struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"pprof" json:"pprof"`
}

func (c *Config) TypingExpiry() time.Duration {
	if c.Typing.ExpiryMs <= 0 {
		return 3 * time.Second
	}

	return time.Duration(c.Typing.ExpiryMs) * time.Millisecond
}

func (c *Config) StatusTTL() time.Duration {
	if c.Status.TTLHours <= 0 {
		return 24 * time.Hour
	}

	return time.Duration(c.Status.TTLHours) * time.Hour
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}
