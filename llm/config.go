package llm

import "os"

// Config carries per-call construction parameters for a provider's chat or
// embeddings model.
type Config struct {
	APIKey  string
	BaseURL string
	Debug   bool
}

// env is the process-wide lookup map a host can populate before consulting
// OS environment variables, per the "environment lookup" rule: providers
// consult this map first, keyed per provider family, and fall back to
// os.Getenv only if the host hasn't set anything here.
var env = map[string]string{}

// SetEnv sets a process-wide environment override, consulted by provider
// constructors before OS environment variables. Intended to be called once
// at host startup.
func SetEnv(key, value string) {
	env[key] = value
}

// LookupEnv checks the process-wide override map, then falls back to the
// OS environment, returning the first populated value among keys. Provider
// mapper constructors call this to resolve an API key when cfg.APIKey is
// empty.
func LookupEnv(keys ...string) string {
	for _, k := range keys {
		if v, ok := env[k]; ok && v != "" {
			return v
		}
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
