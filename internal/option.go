package internal

import "github.com/varga/larkpub/internal/publisher"

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithClient overrides the remote document client (tests).
func WithClient(client publisher.DocAPI) Option {
	return func(a *App) {
		a.client = client
	}
}
