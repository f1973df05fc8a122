package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/vportnov/smallwins/internal/client/models"
)

// Log records a new moment locally. The sync loop picks it up and carries
// it to the server in the background.
func (a *App) Log(ctx context.Context, text string) error {
	m, err := a.momentService.Log(ctx, text, 0)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Logged:", m.Text)
	return nil
}

// List prints a short textual representation for each stored moment,
// newest first.
func (a *App) List(ctx context.Context) error {
	rows, err := a.momentService.List(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printMoments(rows)
	return nil
}

// Favorites prints favorited moments only.
func (a *App) Favorites(ctx context.Context) error {
	rows, err := a.momentService.Favorites(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printMoments(rows)
	return nil
}

// ToggleFavorite flips the favorite flag on a moment, prompting for the id
// when it was not given on the command line.
func (a *App) ToggleFavorite(ctx context.Context, id string) error {
	id, err := a.resolveID(id, "Enter moment id to favorite")
	if err != nil {
		return err
	}
	m, err := a.momentService.ToggleFavorite(ctx, id)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if m.IsFavorite {
		printlnFn("Favorited:", m.Text)
	} else {
		printlnFn("Unfavorited:", m.Text)
	}
	return nil
}

// Delete removes a moment. The deletion survives future syncs.
func (a *App) Delete(ctx context.Context, id string) error {
	id, err := a.resolveID(id, "Enter moment id to delete")
	if err != nil {
		return err
	}
	if err := a.momentService.Delete(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Deleted.")
	return nil
}

// Restore undoes a delete. It takes the server id, since the local record
// is already gone.
func (a *App) Restore(ctx context.Context, id string) error {
	id, err := a.resolveID(id, "Enter server id to restore")
	if err != nil {
		return err
	}
	m, err := a.momentService.Restore(ctx, id)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Restored:", m.Text)
	return nil
}

// Sync kicks the background sync loop. Starting it again while it runs is
// safe, the previous loop is cancelled first.
func (a *App) Sync(ctx context.Context) error {
	a.syncer.Start(ctx)
	printlnFn("Sync started.")
	return nil
}

// Refresh pulls the full moment list from the server, reconciles it into
// the local store and kicks the sync loop: a refresh may have brought in
// records still awaiting enrichment.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.momentService.Refresh(ctx); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Refreshed.")
	a.syncer.Start(ctx)
	return nil
}

// Quota prints the current quota state.
func (a *App) Quota(ctx context.Context) error {
	premium, err := a.quota.IsPremium(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if premium {
		printlnFn("Premium: no limits apply.")
		return nil
	}

	total, err := a.quota.IsTotalLimitReached(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if total {
		printlnFn("Lifetime moment limit reached. Upgrade to keep logging.")
		return nil
	}

	daily, err := a.quota.IsDailyLimitReached(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if daily {
		printlnFn("Daily moment limit reached. Come back tomorrow.")
	} else {
		printlnFn("You can log more wins today.")
	}
	return nil
}

// Upgrade flips the premium flag and unblocks quota-limited moments. The
// next sync pass picks them up again.
func (a *App) Upgrade(ctx context.Context) error {
	if err := a.momentService.Upgrade(ctx); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	printlnFn("Upgraded. All limits lifted.")
	a.syncer.Start(ctx)
	return nil
}

func (a *App) resolveID(id string, prompt string) (string, error) {
	if id != "" {
		return id, nil
	}
	id, err := GetSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return "", err
	}
	return id, nil
}

func (a *App) printMoments(rows []models.Moment) {
	if len(rows) == 0 {
		printlnFn("No moments yet. Log your first small win!")
		return
	}
	for _, m := range rows {
		printlnFn(momentLine(m))
	}
}

func momentLine(m models.Moment) string {
	mark := " "
	if m.IsSynced {
		mark = "*"
	}
	star := ""
	if m.IsFavorite {
		star = " (fav)"
	}
	s := fmt.Sprintf("%s [%s] %s%s", m.ClientID, mark, m.Text, star)
	if m.Praise != "" {
		s = s + " | " + m.Praise
	}
	if m.IsQuotaBlocked() {
		s = s + " | not synced: " + m.SyncError
	}
	return s
}

func (a *App) getStatus() string {
	pending, err := a.momentRepo.GetUnsynced(context.Background())
	if err != nil || len(pending) == 0 {
		return ""
	}
	return fmt.Sprintf("(%d pending) ", len(pending))
}
