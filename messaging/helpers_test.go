package messaging

import "scmcore/config"

func configForBackend(backend string) *config.Config {
	cfg := config.Defaults()
	cfg.Messaging.Backend = backend
	return cfg
}
