package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime settings loaded from environment variables.
type Config struct {
	RawPath             string
	Sheet               string
	CleanedPath         string
	SummaryPath         string
	OrganismSummaryPath string
	FirstLinePath       string
	MDRPath             string
	FiguresDir          string

	PipelinePath string
	LogLevel     string

	FiguresPNG     bool
	ChromeBin      string
	RenderTimeout  int // seconds per figure
	MaxRetries     int
	RetryBaseDelay int // milliseconds
}

// Load reads the optional .env files and returns a populated Config.
// A missing .env is not an error; the second return value reports whether
// one was found so the caller can log it.
func Load(envFiles ...string) (*Config, bool) {
	found := godotenv.Load(envFiles...) == nil

	return &Config{
		RawPath:             getEnv("AMR_RAW_PATH", "data/raw/amr_data_2025.xlsx"),
		Sheet:               getEnv("AMR_SHEET", ""),
		CleanedPath:         getEnv("AMR_CLEANED_PATH", "data/processed/amr_data_2025_cleaned.csv"),
		SummaryPath:         getEnv("AMR_SUMMARY_PATH", "data/processed/resistance_rates_summary.csv"),
		OrganismSummaryPath: getEnv("AMR_ORGANISM_SUMMARY_PATH", "data/processed/organism_resistance_summary.csv"),
		FirstLinePath:       getEnv("AMR_FIRST_LINE_PATH", "data/processed/first_line_treatments.csv"),
		MDRPath:             getEnv("AMR_MDR_PATH", "data/processed/mdr_organisms.csv"),
		FiguresDir:          getEnv("AMR_FIGURES_DIR", "reports/figures"),

		PipelinePath: getEnv("AMR_PIPELINE_CONFIG", ""),
		LogLevel:     getEnv("AMR_LOG_LEVEL", "info"),

		FiguresPNG:     getEnvBool("AMR_FIGURES_PNG", false),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		RenderTimeout:  getEnvInt("AMR_RENDER_TIMEOUT", 30),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay: getEnvInt("RETRY_BASE_DELAY_MS", 500),
	}, found
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
