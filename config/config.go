package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Recording RecordingConfig
	AWS       AWSConfig
	Redis     RedisConfig
	WebRTC    WebRTCConfig
	Token     TokenConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// BackendConfig holds the conferencing backend (LiveKit-protocol) settings.
// URL is the HTTP API host; WSURL is what clients connect to and is returned
// verbatim in connection details.
type BackendConfig struct {
	URL       string
	WSURL     string
	APIKey    string
	APISecret string
}

// RecordingConfig holds the egress service settings. EgressEndpoint serves
// GET /start?roomName= and GET /stop?roomName=.
type RecordingConfig struct {
	EgressEndpoint string
	MuteGapMillis  int // delay between audio and video mute in mute-all
}

// AWSConfig holds S3 credentials and the recordings bucket. Endpoint is
// optional and supports S3-compatible stores.
type AWSConfig struct {
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	RecordingsBucket     string
	PresignExpireMinutes int
}

// RedisConfig holds Redis connection settings for the admin reservation store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WebRTCConfig holds STUN/TURN ICE server URLs handed to joining clients.
type WebRTCConfig struct {
	ICEUrls []string // comma-separated in env
}

// TokenConfig holds access token settings.
type TokenConfig struct {
	TTLMinutes int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Backend: BackendConfig{
			URL:       getEnv("LIVEKIT_URL", "http://localhost:7880"),
			WSURL:     getEnv("LIVEKIT_WS_URL", "ws://localhost:7880"),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Recording: RecordingConfig{
			EgressEndpoint: getEnv("RECORD_ENDPOINT", ""),
			MuteGapMillis:  getEnvInt("MUTE_ALL_GAP_MS", 1000),
		},
		AWS: AWSConfig{
			Region:               getEnv("S3_REGION", "us-east-1"),
			Endpoint:             getEnv("S3_ENDPOINT", ""),
			AccessKeyID:          getEnv("S3_KEY_ID", ""),
			SecretAccessKey:      getEnv("S3_KEY_SECRET", ""),
			RecordingsBucket:     getEnv("S3_BUCKET", "meet-recordings"),
			PresignExpireMinutes: getEnvInt("S3_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		WebRTC: WebRTCConfig{
			ICEUrls: splitTrim(getEnv("WEBRTC_ICE_URLS", "stun:stun.l.google.com:19302"), ","),
		},
		Token: TokenConfig{
			TTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 360),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
