// Package config provides configuration structures and utilities for gradscan.
// It defines the crawl, cleaning, and storage options, the environment
// variable overrides inherited from earlier pipeline iterations, and the
// .gradscan YAML configuration file loader.
package config
