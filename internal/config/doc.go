// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Every field is optional except the database credentials (postgres backend) and
// the bitquery API key (blocks source enabled); see defaults.go.
package config
