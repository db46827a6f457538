// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Every component of the engine declares its own Config struct with env
// tags (driver selection, pool ceilings, eviction caps, worker counts) and
// loads it through Load at startup. Parsed configs are cached per type, so
// shared configs stay consistent across components.
package config
