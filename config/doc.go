// Package config loads the editor configuration: built-in defaults, then an
// optional YAML file, then environment variables. Load validates the result
// and reports every problem in a single *ConfigurationError so a misconfigured
// deployment fails at startup rather than on the first request.
//
// Message templates can only be set in the file, under "templates".
package config
