// Package config loads dataflow configuration.
//
// Files are found by service name (./cmd/<service>/config.yml, ./config.yml
// and so on) and read with Viper through an afero filesystem. A .env file is
// loaded with godotenv, then environment variables prefixed with the service
// name override file values (DATAFLOW_LOADER_BUFFER_SIZE sets
// loader.buffer_size). Flags bound with WithFlags win over both.
//
//	cfg, err := config.Load[Config]("dataflow",
//	    config.WithConfigFile(path),
//	    config.WithFlags(pflag.CommandLine, map[string]string{"loader.buffer_size": "buffer-size"}),
//	)
package config
