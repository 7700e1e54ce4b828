package common

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Recognizer RecognizerConfig
	Pipeline   PipelineConfig
	Sheets     SheetsConfig
	Review     ReviewConfig
}

// RecognizerConfig holds document-reader service configuration
type RecognizerConfig struct {
	BaseURL    string
	Scenario   string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// PipelineConfig holds batch pipeline configuration
type PipelineConfig struct {
	ImageRoot  string
	ResultsDir string
	StartDelay time.Duration
	MinDelay   time.Duration
	Cooldown   time.Duration
}

// SheetsConfig holds spreadsheet upload configuration
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsPath string
	TokenPath       string
}

// ReviewConfig holds human-review workbook configuration
type ReviewConfig struct {
	WorkbookDir string
	CachePath   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	workbookDir := getEnv("REVIEW_WORKBOOK_DIR", "./static")
	return &Config{
		Recognizer: RecognizerConfig{
			BaseURL:    getEnv("DOCREADER_URL", "http://localhost:8080"),
			Scenario:   getEnv("DOCREADER_SCENARIO", "FullProcess"),
			Timeout:    getEnvAsDuration("DOCREADER_TIMEOUT", 90*time.Second),
			MaxRetries: getEnvAsInt("DOCREADER_MAX_RETRIES", 3),
			RetryBase:  getEnvAsDuration("DOCREADER_RETRY_BASE", 2*time.Second),
		},
		Pipeline: PipelineConfig{
			ImageRoot:  getEnv("IMAGE_PATH", ""),
			ResultsDir: getEnv("RESULTS_DIR", "results"),
			StartDelay: getEnvAsDuration("DOCREADER_API_DELAY", 6*time.Second),
			MinDelay:   getEnvAsDuration("DOCREADER_MIN_DELAY", 6*time.Second),
			Cooldown:   getEnvAsDuration("DOCREADER_COOLDOWN", 60*time.Second),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
			CredentialsPath: getEnv("CREDENTIALS_PATH", "credentials.json"),
			TokenPath:       getEnv("TOKEN_PATH", "token.json"),
		},
		Review: ReviewConfig{
			WorkbookDir: workbookDir,
			CachePath:   getEnv("REVIEW_CACHE_PATH", filepath.Join(workbookDir, "consolidated_data.csv")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Pipeline.ImageRoot == "" {
		return NewAppError("CONFIG_ERROR", "IMAGE_PATH is required", ErrInvalidInput)
	}
	if c.Recognizer.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "DOCREADER_URL is required", ErrInvalidInput)
	}
	return nil
}

// ValidateForUpload checks the keys the uploader needs on top of Validate.
func (c *Config) ValidateForUpload() error {
	if c.Sheets.SpreadsheetID == "" {
		return NewAppError("CONFIG_ERROR", "SPREADSHEET_ID is required", ErrInvalidInput)
	}
	if c.Sheets.CredentialsPath == "" {
		return NewAppError("CONFIG_ERROR", "CREDENTIALS_PATH is required", ErrInvalidInput)
	}
	return nil
}
