package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keuthlie/internal/flagx"
	"github.com/dmitrijs2005/keuthlie/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it names. Durations use timex.Duration, which accepts "5s" or
// integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP   *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC   *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        *string         `json:"database_dsn"`
	MaxOpenConns       *int            `json:"max_open_conns"`
	MaxIdleConns       *int            `json:"max_idle_conns"`
	ConnMaxLifetime    *timex.Duration `json:"conn_max_lifetime"`
	QueryTimeout       *timex.Duration `json:"query_timeout"`
	PrivateKeyLocation *string         `json:"private_key"`
	PublicKeyLocation  *string         `json:"public_key"`
	IssuerID           *string         `json:"issuer_id"`
	AllowedServices    []string        `json:"allowed_services"`
	AllowedOrigins     []string        `json:"allowed_origins"`
	MinPasswordLength  *int            `json:"min_password_length"`
	Argon2             *JsonArgon2     `json:"argon2"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	S3AccessKey        *string         `json:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key"`
	LogBackend         *string         `json:"log_backend"`
	LogLevel           *string         `json:"log_level"`
}

type JsonArgon2 struct {
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	SaltLength  uint32 `json:"salt_length"`
	KeyLength   uint32 `json:"key_length"`
}

// parseJson overlays the JSON file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.MaxOpenConns, c.MaxOpenConns)
	setInt(&config.MaxIdleConns, c.MaxIdleConns)
	if c.ConnMaxLifetime != nil {
		config.ConnMaxLifetime = c.ConnMaxLifetime.Duration
	}
	if c.QueryTimeout != nil {
		config.QueryTimeout = c.QueryTimeout.Duration
	}
	setString(&config.PrivateKeyLocation, c.PrivateKeyLocation)
	setString(&config.PublicKeyLocation, c.PublicKeyLocation)
	setString(&config.IssuerID, c.IssuerID)
	if c.AllowedServices != nil {
		config.AllowedServices = c.AllowedServices
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setInt(&config.MinPasswordLength, c.MinPasswordLength)
	if a := c.Argon2; a != nil {
		config.Argon2.Memory = a.Memory
		config.Argon2.Time = a.Time
		config.Argon2.Parallelism = a.Parallelism
		config.Argon2.SaltLength = a.SaltLength
		config.Argon2.KeyLength = a.KeyLength
	}
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
