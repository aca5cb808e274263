package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppPort         string
	AppBaseURL      string
	DBDSN           string
	JWTSecret       string
	JWTExpiresMin   int
	LogLevel        string
	UploadDir       string
	CORSOrigins     string
	RedisAddr       string
	RedisPassword   string
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string

	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string

	// CloudinaryURL switches uploads from local disk to Cloudinary.
	CloudinaryURL string

	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "10080"))
	rps, _ := strconv.ParseFloat(get("RATE_LIMIT_RPS", "1"), 64)
	burst, _ := strconv.Atoi(get("RATE_LIMIT_BURST", "5"))
	return Config{
		AppPort:         get("APP_PORT", "8080"),
		AppBaseURL:      strings.TrimRight(get("APP_BASE_URL", ""), "/"),
		DBDSN:           must("DB_DSN"),
		JWTSecret:       must("JWT_SECRET"),
		JWTExpiresMin:   expires,
		LogLevel:        get("LOG_LEVEL", "info"),
		UploadDir:       get("UPLOAD_DIR", "./uploads"),
		CORSOrigins:     get("CORS_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),
		RedisAddr:       get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   get("REDIS_PASSWORD", ""),
		GoogleClientID:  get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:    get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:  get("GOOGLE_REDIRECT_URL", ""),
		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
		KafkaBroker:     get("KAFKA_BROKER", ""),
		KafkaTopic:      get("KAFKA_TOPIC", "mail-events"),
		KafkaUsername:   get("KAFKA_USERNAME", ""),
		KafkaPassword:   get("KAFKA_PASSWORD", ""),
		CloudinaryURL:   get("CLOUDINARY_URL", ""),
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
