package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/thesisvault/internal/client/access"
	"github.com/dmitrijs2005/thesisvault/internal/client/config"
	"github.com/dmitrijs2005/thesisvault/internal/client/identity"
	"github.com/dmitrijs2005/thesisvault/internal/client/services"
	"github.com/dmitrijs2005/thesisvault/internal/client/session"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/dmitrijs2005/thesisvault/internal/records"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	session *session.Session

	auth      services.AuthService
	theses    services.ThesisService
	profile   services.ProfileService
	favorites services.FavoriteService
	members   services.MemberService
	messages  services.MessageService

	reader *bufio.Reader
	out    io.Writer
}

// NewApp connects to the record store, applies migrations when configured
// and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewText(os.Stderr, c.SlogLevel())

	db, err := dbx.Open(ctx, records.Driver, c.DatabaseDSN, dbx.DefaultRetryPolicy, logger)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}

	rm := records.NewPostgresManager()
	if c.Migrate {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	a := newApp(c, logger, db, rm, &http.Client{Timeout: c.HTTPTimeout})
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm records.Manager, hc *http.Client) *App {
	sess := session.New()

	observer := func(tr access.Transition) {
		logger.Debug(context.Background(), "transfer state",
			"op", tr.Op, "object", tr.Object, "from", tr.From.String(), "to", tr.To.String())
	}
	store := access.New(access.Config{
		ReadURL:    c.ReadURL(),
		WriteURL:   c.WriteURL(),
		Bucket:     c.Bucket,
		HTTPClient: hc,
	}, sess, logger.With("module", "access"), access.WithStateObserver(observer))

	idp := identity.New(c.IdentityURL, c.IdentityAPIKey, hc)

	deps := services.Deps{
		DB:      db,
		Records: rm,
		Session: sess,
		Retry:   dbx.DefaultRetryPolicy,
		Logger:  logger.With("module", "services"),
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		session:   sess,
		auth:      services.NewAuthService(deps, idp),
		theses:    services.NewThesisService(deps, store),
		profile:   services.NewProfileService(deps, store),
		favorites: services.NewFavoriteService(deps),
		members:   services.NewMemberService(deps),
		messages:  services.NewMessageService(deps),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
}

// Run blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	printlnFn("Welcome to thesisvault (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) close() {
	a.session.Clear()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}

func (a *App) status() string {
	p, ok := a.session.Snapshot()
	if !ok {
		return "(guest)"
	}
	return fmt.Sprintf("(%s)", p.Name)
}
