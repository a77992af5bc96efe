// Package config loads sync configuration from the environment.
//
// All secrets are supplied as environment variables (optionally via a
// local .env file). The test/prod environment selector switches between
// the plain variable names and their _TEST-suffixed variants, so one
// deployment can carry both secret sets.
package config
