package config

import (
	"github.com/pkg/errors"
	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient creates a Supabase client for the configured project
// using the service key.
func NewSupabaseClient(cfg *Config) (*supa.Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.Errorf("%s and %s are required", EnvSupabaseURL, EnvSupabaseKey)
	}
	client, err := supa.NewClient(cfg.Endpoint, cfg.APIKey, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Supabase client")
	}
	return client, nil
}
