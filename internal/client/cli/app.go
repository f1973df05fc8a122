package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/vportnov/smallwins/internal/client/client"
	"github.com/vportnov/smallwins/internal/client/config"
	"github.com/vportnov/smallwins/internal/client/repositories/moments"
	"github.com/vportnov/smallwins/internal/client/repositories/settings"
	"github.com/vportnov/smallwins/internal/client/services"
	"github.com/vportnov/smallwins/internal/filex"
	"github.com/vportnov/smallwins/internal/logging"

	_ "modernc.org/sqlite"
)

// syncLoop is the slice of the Syncer the app drives: kick it after load,
// refresh or upgrade, stop it on shutdown.
type syncLoop interface {
	Start(ctx context.Context)
	Stop()
}

type App struct {
	config        *config.Config
	momentService services.MomentService
	momentRepo    moments.Repository
	quota         *services.Quota
	syncer        syncLoop
	apiClient     client.Client
	db            *sql.DB
	reader        *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	momentRepo := moments.NewSQLiteRepository(db)
	settingsRepo := settings.NewSQLiteRepository(db)

	userID, err := services.EnsureUserID(ctx, settingsRepo)
	if err != nil {
		db.Close()
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerBaseURL, userID, c.HTTPTimeout)

	quota := services.NewQuota(settingsRepo)
	reconciler := services.NewReconciler(momentRepo, logger)
	syncer := services.NewSyncer(apiClient, momentRepo, reconciler, quota, logger, c.SyncInterval)
	ms := services.NewMomentService(apiClient, momentRepo, reconciler, quota, logger, c.Timezone)

	return &App{
		config:        c,
		momentService: ms,
		momentRepo:    momentRepo,
		quota:         quota,
		syncer:        syncer,
		apiClient:     apiClient,
		db:            db,
		reader:        bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the background sync loop and blocks in the REPL until the
// user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.syncer.Start(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) Close() {
	a.syncer.Stop()
	if err := a.apiClient.Close(); err != nil {
		log.Printf("error closing api client: %s", err.Error())
	}
	if err := a.db.Close(); err != nil {
		log.Printf("error closing database: %s", err.Error())
	}
}
