package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"clipcast/internal/appdirs"
)

type App struct {
	Proxy    string `toml:"proxy"`
	FontFile string `toml:"font_file"`
}

type Telegram struct {
	Token       string `toml:"token"`
	PollTimeout int    `toml:"poll_timeout"`
}

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Queue struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
}

type Config struct {
	App      App      `toml:"app"`
	Telegram Telegram `toml:"telegram"`
	Server   Server   `toml:"server"`
	Queue    Queue    `toml:"queue"`
}

var Conf Config

var resolveConfigPath = func() (string, error) {
	dirs, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return dirs.ConfigFile, nil
}

func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

func defaultConfig() Config {
	return Config{
		App: App{
			FontFile: filepath.Join("fonts", "LiberationSans-Regular.ttf"),
		},
		Telegram: Telegram{
			PollTimeout: 30,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
		Queue: Queue{
			RedisDB:     0,
			Concurrency: 2,
		},
	}
}

// LoadOrCreateConfig loads the config file, writing defaults first when the
// file does not exist yet. Returns true when a new file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, fmt.Errorf("write default config: %w", err)
		}
		return true, nil
	} else if err != nil {
		return false, err
	}

	if _, err := toml.DecodeFile(configPath, &Conf); err != nil {
		return false, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	applyEnvOverrides()
	return false, nil
}

// SaveConfig writes the current Conf to the resolved config path, creating
// parent directories as needed.
func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// LoadConfig is the startup entry point: load-or-create plus env overrides.
func LoadConfig() bool {
	if _, err := LoadOrCreateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return false
	}
	applyEnvOverrides()
	return true
}

// CheckConfig validates the fields the bot cannot run without.
func CheckConfig() error {
	if strings.TrimSpace(Conf.Telegram.Token) == "" {
		return errors.New("telegram.token is not set (or TELEGRAM_TOKEN env)")
	}
	if Conf.Telegram.PollTimeout <= 0 {
		Conf.Telegram.PollTimeout = 30
	}
	if Conf.Server.Port <= 0 || Conf.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", Conf.Server.Port)
	}
	return nil
}

func applyEnvOverrides() {
	if token := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); token != "" {
		Conf.Telegram.Token = token
	}
	if proxy := strings.TrimSpace(os.Getenv("HTTPS_PROXY")); proxy != "" && Conf.App.Proxy == "" {
		Conf.App.Proxy = proxy
	}
}
