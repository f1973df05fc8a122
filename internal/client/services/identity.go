package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vportnov/smallwins/internal/client/repositories/settings"
)

// EnsureUserID returns the persisted anonymous user identifier, minting and
// storing one on first run. The id is opaque and carried on every API
// request.
func EnsureUserID(ctx context.Context, settingsRepo settings.Repository) (string, error) {
	id, err := settingsRepo.Get(ctx, settings.KeyAnonUserID)
	if err != nil {
		return "", fmt.Errorf("reading user id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := settingsRepo.Set(ctx, settings.KeyAnonUserID, id); err != nil {
		return "", fmt.Errorf("persisting user id: %w", err)
	}
	return id, nil
}
