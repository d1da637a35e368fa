package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// fillFromSecretManager resolves credentials that are absent from the
// environment against GCP Secret Manager, using the env variable name as the
// secret id. Env values always win.
func fillFromSecretManager(ctx context.Context, cfg *Config) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	targets := map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &cfg.TelegramBotToken,
		"GROQ_API_KEY":        &cfg.GroqAPIKey,
		"UNSPLASH_ACCESS_KEY": &cfg.UnsplashAccessKey,
		"PEXELS_API_KEY":      &cfg.PexelsAPIKey,
		"PIXABAY_API_KEY":     &cfg.PixabayAPIKey,
	}

	for name, dest := range targets {
		if *dest != "" {
			continue
		}
		value, err := accessSecret(ctx, client, cfg.SecretProject, name)
		if err != nil {
			slog.Debug("Secret not available", "secret", name, "error", err)
			continue
		}
		*dest = value
	}

	return nil
}

func accessSecret(ctx context.Context, client *secretmanager.Client, project, name string) (string, error) {
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}
