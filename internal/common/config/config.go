package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	LogLevel     string

	TablesDBPath string
	TablesURL    string

	Editor EditorConfig
}

// EditorConfig параметры редактора плана и правила объединения столов.
type EditorConfig struct {
	AdjacencyThreshold float64 `yaml:"adjacency_threshold"`
	GridSize           float64 `yaml:"grid_size"`
	MinZoom            float64 `yaml:"min_zoom"`
	MaxZoom            float64 `yaml:"max_zoom"`
	RotationStep       float64 `yaml:"rotation_step"`
	HistoryDepth       int     `yaml:"history_depth"`
	ReloadAfterSave    bool    `yaml:"reload_after_save"`
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		TablesDBPath: getEnv("TABLES_DB_PATH", "data/db/tables.db"),
		TablesURL:    getEnv("TABLES_URL", "http://localhost:3003"),

		Editor: EditorConfig{
			AdjacencyThreshold: getEnvAsFloat("ADJACENCY_THRESHOLD", 100),
			GridSize:           getEnvAsFloat("GRID_SIZE", 20),
			MinZoom:            getEnvAsFloat("MIN_ZOOM", 0.5),
			MaxZoom:            getEnvAsFloat("MAX_ZOOM", 2.0),
			RotationStep:       getEnvAsFloat("ROTATION_STEP", 45),
			HistoryDepth:       getEnvAsInt("HISTORY_DEPTH", 50),
			ReloadAfterSave:    getEnvAsBool("RELOAD_AFTER_SAVE", true),
		},
	}
}

// ParseLevel переводит LOG_LEVEL в уровень fiber/log; неизвестное значение дает info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
