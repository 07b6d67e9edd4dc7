// Package config loads typed configuration structs from the process
// environment.
//
// It wraps github.com/joho/godotenv (optional .env file) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every config type is
// parsed once and cached, so the pg, redis, cookie and http server configs
// can each be loaded where they are needed without re-reading the
// environment.
//
//	type AppConfig struct {
//		AdminKey string `env:"ADMIN_KEY,required"`
//	}
//
//	var cfg AppConfig
//	config.MustLoad(&cfg)
package config
