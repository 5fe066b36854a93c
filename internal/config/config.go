package config

import (
	"encoding/base64"
	"fmt"
)

const defaultFrontendURL = "http://localhost:5173"

type Config struct {
	ServerAddr  string
	DatabaseDSN string
	RedisURL    string
	SigningKey  []byte
	// FrontendURL is embedded in generated QR codes (FRONTEND_URL/scan/{qrCodeId}).
	FrontendURL    string
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

// NewConfig validates and assembles the server configuration. DatabaseDSN
// and RedisURL may be empty: the server then falls back to its in-memory
// store and presence tracker.
func NewConfig(serverAddr, databaseDSN, redisURL, base64Secret, frontendURL string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if frontendURL == "" {
		frontendURL = defaultFrontendURL
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		RedisURL:       redisURL,
		SigningKey:     signingKey,
		FrontendURL:    frontendURL,
		AllowedOrigins: allowedOrigins,
	}, nil
}
