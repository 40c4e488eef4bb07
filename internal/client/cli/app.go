package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/client/captcha"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories"
	"github.com/dmitrijs2005/authkeeper/internal/client/services"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

const guestView = "guest"

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	session     *session.Session
	authService services.AuthService
	reader      *bufio.Reader
	out         io.Writer
}

// NewApp wires the logger, the local session database, the API client and
// the auth service, and restores a previously saved session.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log, err := logging.New(os.Stderr, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := repositories.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.SessionDB, "error", err)
		return nil, err
	}

	sess := session.New(session.NewSQLiteStore(db, c.TokenKey), log)
	if err := sess.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, captcha.NewManager(apiClient, log), sess, log)

	return &App{
		config:      c,
		log:         log,
		db:          db,
		session:     sess,
		authService: as,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run starts the REPL and blocks until the user exits, stdin is closed or
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.log.Info(ctx, "starting", "server", a.config.ServerURL)
	fmt.Fprintln(a.out, "Welcome to authkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

// status names the current view for the prompt.
func (a *App) status() string {
	if name := a.session.DisplayName(); name != "" {
		return name
	}
	return guestView
}
