// Package config loads service configuration from YAML files, .env files
// and environment variables using Viper.
//
// Files are searched in the usual places (./cmd/<service>/config.yml,
// ./config/config.yml, ./config.yml). Every environment variable is bound
// under several nested key spellings, so PIPELINE_IAM_ROLE populates
// pipeline.iam_role without explicit binding.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("starschema", &cfg, config.WithConfigFile(path))
package config
