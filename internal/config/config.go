// Package config читает настройки сервера и клиента из переменных окружения
// и необязательного файла .env.
//
// Переменные окружения главнее значений из .env, те главнее значений по умолчанию.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Значения по умолчанию.
const (
	DefaultPort           = "8000"
	DefaultDBFile         = "tasks.json"
	DefaultRequestTimeout = 2 * time.Second
	DefaultAPIURL         = "http://localhost:8000"
	DefaultEnvFile        = ".env"
)

// DefaultCORSOrigins адреса dev-сервера фронтенда.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

// Server настройки cmd/task-server.
type Server struct {
	Port           string
	CORSOrigins    []string
	DBFile         string
	RedisURL       string
	RequestTimeout time.Duration
	AdminUser      string
	AdminPassword  string
	Debug          bool
}

// Addr возвращает адрес для http.ListenAndServe.
func (s Server) Addr() string {
	return ":" + s.Port
}

// Client настройки cmd/taskctl.
type Client struct {
	APIURL        string
	AdminUser     string
	AdminPassword string
	Priorities    []string
	Categories    []string
	Debug         bool
}

// LoadServer читает настройки сервера из окружения и ./.env.
func LoadServer() (Server, error) {
	return loadServer(DefaultEnvFile)
}

// LoadClient читает настройки клиента из окружения и ./.env.
// Пустые списки означают наборы по умолчанию.
func LoadClient() (Client, error) {
	return loadClient(DefaultEnvFile)
}

func loadServer(envFile string) (Server, error) {
	v, err := newViper(envFile)
	if err != nil {
		return Server{}, err
	}
	v.SetDefault("api_port", DefaultPort)
	v.SetDefault("cors_origins", strings.Join(DefaultCORSOrigins, ","))
	v.SetDefault("db_file", DefaultDBFile)
	v.SetDefault("request_timeout", DefaultRequestTimeout)

	timeout, err := cast.ToDurationE(v.Get("request_timeout"))
	if err != nil {
		return Server{}, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if timeout < 0 {
		return Server{}, fmt.Errorf("REQUEST_TIMEOUT: must not be negative")
	}
	debug, err := getBool(v, "debug")
	if err != nil {
		return Server{}, err
	}

	cfg := Server{
		Port:           strings.TrimSpace(v.GetString("api_port")),
		CORSOrigins:    getList(v, "cors_origins"),
		DBFile:         v.GetString("db_file"),
		RedisURL:       v.GetString("redis_url"),
		RequestTimeout: timeout,
		AdminUser:      v.GetString("admin_user"),
		AdminPassword:  v.GetString("admin_password"),
		Debug:          debug,
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Server{}, fmt.Errorf("API_PORT: invalid port %q", cfg.Port)
	}
	if (cfg.AdminUser == "") != (cfg.AdminPassword == "") {
		return Server{}, fmt.Errorf("ADMIN_USER and ADMIN_PASSWORD must be set together")
	}
	return cfg, nil
}

func loadClient(envFile string) (Client, error) {
	v, err := newViper(envFile)
	if err != nil {
		return Client{}, err
	}
	v.SetDefault("tasks_api_url", DefaultAPIURL)

	debug, err := getBool(v, "debug")
	if err != nil {
		return Client{}, err
	}

	return Client{
		APIURL:        v.GetString("tasks_api_url"),
		AdminUser:     v.GetString("admin_user"),
		AdminPassword: v.GetString("admin_password"),
		Priorities:    getList(v, "tasks_priorities"),
		Categories:    getList(v, "tasks_categories"),
		Debug:         debug,
	}, nil
}

// newViper связывает ключи с переменными окружения (api_port -> API_PORT)
// и подмешивает envFile, если он есть.
func newViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	if envFile == "" {
		return v, nil
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return v, nil
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	return v, nil
}

// getList разбирает значение вида "a, b,c". Пустые элементы пропускаются.
//
// GetStringSlice делит строку по пробелам, а списки в окружении пишутся через запятую.
func getList(v *viper.Viper, key string) []string {
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getBool(v *viper.Viper, key string) (bool, error) {
	raw := v.Get(key)
	if s, ok := raw.(string); raw == nil || (ok && strings.TrimSpace(s) == "") {
		return false, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", strings.ToUpper(key), err)
	}
	return b, nil
}
