package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
		JWTSecret   string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
	Database struct {
		Driver   string `mapstructure:"driver"` // sqlite | postgres
		Path     string `mapstructure:"path"`   // sqlite file
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Store struct {
		Provider  string `mapstructure:"provider"` // db | local | s3
		LocalPath string `mapstructure:"local_path"`
		KeyID     string `mapstructure:"key_id"`
		AppKey    string `mapstructure:"app_key"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		ObjectKey string `mapstructure:"object_key"`
	} `mapstructure:"store"`
	Sync struct {
		CriticalDelayMS    int `mapstructure:"critical_delay_ms"`
		QuietWindowSeconds int `mapstructure:"quiet_window_seconds"`
		ResyncSeconds      int `mapstructure:"resync_seconds"`
		EditHoldSeconds    int `mapstructure:"edit_hold_seconds"`
	} `mapstructure:"sync"`
	Feeds struct {
		PollMinutes      int    `mapstructure:"poll_minutes"`
		EmployeesURL     string `mapstructure:"employees_url"`
		EmployeesEnabled bool   `mapstructure:"employees_enabled"`
		TeamsURL         string `mapstructure:"teams_url"`
		TeamsEnabled     bool   `mapstructure:"teams_enabled"`
		Token            string `mapstructure:"token"`
	} `mapstructure:"feeds"`
	Broadcast struct {
		Dir             string `mapstructure:"dir"`
		Channel         string `mapstructure:"channel"`
		WatchIntervalMS int    `mapstructure:"watch_interval_ms"`
		ClearAfterMS    int    `mapstructure:"clear_after_ms"`
	} `mapstructure:"broadcast"`
}

func Load() *Config {
	viper.SetEnvPrefix("DISPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.log_level")
	viper.BindEnv("server.jwt_secret")

	viper.BindEnv("database.driver")
	viper.BindEnv("database.path")
	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("store.provider")
	viper.BindEnv("store.local_path")
	viper.BindEnv("store.key_id")
	viper.BindEnv("store.app_key")
	viper.BindEnv("store.endpoint")
	viper.BindEnv("store.region")
	viper.BindEnv("store.bucket")
	viper.BindEnv("store.object_key")

	viper.BindEnv("sync.critical_delay_ms")
	viper.BindEnv("sync.quiet_window_seconds")
	viper.BindEnv("sync.resync_seconds")
	viper.BindEnv("sync.edit_hold_seconds")

	viper.BindEnv("feeds.poll_minutes")
	viper.BindEnv("feeds.employees_url")
	viper.BindEnv("feeds.employees_enabled")
	viper.BindEnv("feeds.teams_url")
	viper.BindEnv("feeds.teams_enabled")
	viper.BindEnv("feeds.token")

	viper.BindEnv("broadcast.dir")
	viper.BindEnv("broadcast.channel")
	viper.BindEnv("broadcast.watch_interval_ms")
	viper.BindEnv("broadcast.clear_after_ms")

	// Defaults
	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.log_level", "error")
	viper.SetDefault("server.jwt_secret", "change-me-display-secret")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "./display.db")
	viper.SetDefault("database.port", "5432")

	viper.SetDefault("store.provider", "db")
	viper.SetDefault("store.local_path", "./data/snapshot.json")
	viper.SetDefault("store.object_key", "snapshot.json")

	// Sync tuning. The critical delay lets a batch of synchronous UI updates
	// settle; the quiet window coalesces content edits into one write.
	viper.SetDefault("sync.critical_delay_ms", 100)
	viper.SetDefault("sync.quiet_window_seconds", 5)
	viper.SetDefault("sync.resync_seconds", 30)
	viper.SetDefault("sync.edit_hold_seconds", 5)

	// Feeds refresh on an hours-scale period to bound external call volume.
	viper.SetDefault("feeds.poll_minutes", 240)
	viper.SetDefault("feeds.employees_enabled", true)
	viper.SetDefault("feeds.teams_enabled", true)

	viper.SetDefault("broadcast.dir", "/tmp/led-display")
	viper.SetDefault("broadcast.channel", "display-sync")
	viper.SetDefault("broadcast.watch_interval_ms", 250)
	viper.SetDefault("broadcast.clear_after_ms", 200)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return &cfg
}
