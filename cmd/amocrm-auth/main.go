// Command amocrm-auth performs the one-time authorization-code exchange and
// persists the resulting token pair into the env file.
package main

import (
	"context"
	"time"

	"crmhub_backend/internal/amocrm"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	if cfg.GetAmoAuthCode() == "" {
		panic("AMOCRM_SECRET (authorization code) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	crm := amocrm.New(cfg, cfg, log)
	if err := crm.Tokens().Exchange(ctx); err != nil {
		log.Error("authorization code exchange failed", "error", err)
		panic("authorization code exchange failed: " + err.Error())
	}

	log.Info("token pair obtained and saved", "env_file", cfg.GetAmoEnvFile())
}
