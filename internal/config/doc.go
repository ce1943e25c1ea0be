// Package config loads and validates the padwatch configuration file.
//
// The file is YAML with ${VAR} references expanded from the environment
// before decoding. It has one section per concern: repo, crawl, notify,
// log and metrics. Unset values fall back to the defaults returned by
// NewDefaultConfig.
package config
