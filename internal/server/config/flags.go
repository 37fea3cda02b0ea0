package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/keuthlie/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-g string     gRPC bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-k string     private key location (path or s3://bucket/key)
//	-p string     public key location (path or s3://bucket/key)
//	-t duration   per-flow query timeout
//	-l string     log level
//
// The arguments are first filtered with flagx.FilterArgs so flags owned by
// other loaders (-c, -env) do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-k", "-p", "-t", "-l"})

	fs := flag.NewFlagSet("keuthlie", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.PrivateKeyLocation, "k", config.PrivateKeyLocation, "private key location")
	fs.StringVar(&config.PublicKeyLocation, "p", config.PublicKeyLocation, "public key location")
	fs.DurationVar(&config.QueryTimeout, "t", config.QueryTimeout, "query timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
