// Package config loads netclient configuration from YAML files, .env files
// and environment variables using Viper.
//
// Sources are layered: the YAML file forms the base, .env entries override
// it, and process environment variables override both. Environment keys are
// prefixed with the upper-cased service name:
//
//	NETCLIENT_CLIENT_STUB_MODE=immediate  ->  client.stub.mode
//
// # Usage
//
//	var cfg AppConfig
//	err := config.Load("netclient", &cfg, config.WithConfigFile("netclient.yml"))
package config
