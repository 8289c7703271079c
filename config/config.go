package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AttendanceConfig bundles every knob of the attendance workflow so the
// controller receives them at construction instead of reading literals.
// Tests inject arbitrary office locations and cutoffs through this struct.
type AttendanceConfig struct {
	OfficeLat          float64
	OfficeLng          float64
	MaxDistanceMeters  float64
	LateCutoff         string // wall clock "HH:MM", local time
	EarlyLeaveCutoff   string // wall clock "HH:MM", local time
	FaceMatchThreshold float64
	CheckInCooldown    time.Duration
	// ResumePolicy decides the status restored when a break ends:
	// "restore" recomputes the original lateness classification,
	// "always_present" reproduces the legacy unconditional reset.
	ResumePolicy string
}

// AppConfig holds environment driven configuration values. Secrets never
// have code defaults and must come from the environment or a .env file.
type AppConfig struct {
	AppPort   string
	GinMode   string
	JWTSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	RateLimitPerMinute int
	AllowedOrigins     []string

	UploadDir         string
	UploadMaxMB       int
	UploadOrphanTTL   time.Duration
	UploadSweepEvery  time.Duration
	OAuthRedirectBase string

	GoogleClientID     string
	GoogleClientSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool

	Attendance AttendanceConfig
}

var cfg AppConfig
var loaded bool

// Load reads configuration once per process: a .env file when present,
// then defaults, then environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = godotenv.Load()

	cfg = AppConfig{
		AppPort:   getEnv("APP_PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "internhub"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     intEnv("REDIS_PORT", 6379),
		RedisDB:       intEnv("REDIS_DB", 0),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", "logs/internhub.log"),
		LogMaxSizeMB:  intEnv("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: intEnv("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: intEnv("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   boolEnv("LOG_COMPRESS", false),

		RateLimitPerMinute: intEnv("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     listEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		UploadDir:         getEnv("UPLOAD_DIR", "static/uploads"),
		UploadMaxMB:       intEnv("UPLOAD_MAX_MB", 10),
		UploadOrphanTTL:   durationEnv("UPLOAD_ORPHAN_TTL", time.Hour),
		UploadSweepEvery:  durationEnv("UPLOAD_SWEEP_EVERY", 5*time.Minute),
		OAuthRedirectBase: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     intEnv("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "InternHub"),
		SMTPTLS:      boolEnv("SMTP_TLS", true),

		Attendance: AttendanceConfig{
			OfficeLat:          floatEnv("OFFICE_LAT", -6.175392),
			OfficeLng:          floatEnv("OFFICE_LNG", 106.827153),
			MaxDistanceMeters:  floatEnv("GEOFENCE_MAX_METERS", 10000),
			LateCutoff:         getEnv("LATE_CUTOFF", "08:15"),
			EarlyLeaveCutoff:   getEnv("EARLY_LEAVE_CUTOFF", "16:00"),
			FaceMatchThreshold: floatEnv("FACE_MATCH_THRESHOLD", 0.6),
			CheckInCooldown:    durationEnv("CHECKIN_COOLDOWN", 10*time.Second),
			ResumePolicy:       getEnv("BREAK_RESUME_POLICY", "restore"),
		},
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Override replaces the cached configuration. Intended for tests that need
// deterministic settings without touching the process environment.
func Override(c AppConfig) {
	cfg = c
	loaded = true
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Printf("invalid integer for %s, using %d", key, defaultVal)
	}
	return defaultVal
}

func floatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		log.Printf("invalid float for %s, using %v", key, defaultVal)
	}
	return defaultVal
}

func boolEnv(key string, defaultVal bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE":
		return true
	case "0", "false", "FALSE":
		return false
	}
	return defaultVal
}

func durationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("invalid duration for %s, using %s", key, defaultVal)
	}
	return defaultVal
}

func listEnv(key string, defaults []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaults
	}
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaults
	}
	return items
}
