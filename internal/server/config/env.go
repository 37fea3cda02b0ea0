package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/keuthlie/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "KEUTHLIE_"

// parseEnv overlays KEUTHLIE_* variables. A dotenv file (-env, default
// ".env") is loaded first when present; variables already set in the
// process environment win over the file.
func parseEnv(config *Config, args []string) error {
	if err := godotenv.Load(flagx.EnvFile(args)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	var err error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, name, perr)
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = fmt.Errorf("%s%s: %w", envPrefix, name, perr)
				return
			}
			*dst = d
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = splitList(v)
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	num("MAX_OPEN_CONNS", &config.MaxOpenConns)
	num("MAX_IDLE_CONNS", &config.MaxIdleConns)
	dur("CONN_MAX_LIFETIME", &config.ConnMaxLifetime)
	dur("QUERY_TIMEOUT", &config.QueryTimeout)
	str("PRIVATE_KEY", &config.PrivateKeyLocation)
	str("PUBLIC_KEY", &config.PublicKeyLocation)
	str("ISSUER_ID", &config.IssuerID)
	list("ALLOWED_SERVICES", &config.AllowedServices)
	list("ALLOWED_ORIGINS", &config.AllowedOrigins)
	num("MIN_PASSWORD_LENGTH", &config.MinPasswordLength)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("LOG_BACKEND", &config.LogBackend)
	str("LOG_LEVEL", &config.LogLevel)

	return err
}

// splitList splits a comma separated value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
