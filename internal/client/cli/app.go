package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/keuthlie/internal/client/client"
	"github.com/dmitrijs2005/keuthlie/internal/client/config"
	"github.com/dmitrijs2005/keuthlie/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/jessevdk/go-flags"
)

// API is the subset of the keuthlie client the commands use.
type API interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password, service string) (*client.Session, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	ChangePassword(ctx context.Context, token, password, newPassword string) (*client.Session, error)
	RevokeAll(ctx context.Context, token string) (string, error)
}

// Options are the global options shared by every command.
type Options struct {
	Config  string `short:"c" long:"config" description:"JSON config file"`
	Server  string `short:"s" long:"server" description:"keuthlie base URL (overrides config)"`
	Timeout   string `short:"t" long:"timeout" description:"request timeout, e.g. 5s (overrides config)"`
	SessionDB string `long:"session-db" description:"local database keeping the last token (overrides config)"`
}

// newAPI is a seam for tests.
var newAPI = func(cfg *config.Config) API {
	return client.New(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout})
}

// openSessions is a seam for tests.
var openSessions = func(ctx context.Context, path string) (sessions.Repository, io.Closer, error) {
	repos, err := client.InitDatabase(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return repos.Sessions, repos.DB, nil
}

// App holds state shared by the commands of one invocation.
type App struct {
	ctx    context.Context
	opts   *Options
	reader *bufio.Reader
	out    io.Writer
	api    API
	cfg    *config.Config

	sessions sessions.Repository
	closer   io.Closer
}

// Run parses args and executes the selected command.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	app := &App{ctx: ctx, opts: &Options{}, reader: bufio.NewReader(in), out: out}

	parser := flags.NewParser(app.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "authctl"

	commands := []struct {
		name, short string
		data        any
	}{
		{"keygen", "Generate an RSA keypair for the server", &keygenCmd{app: app}},
		{"register", "Register a new identity", &registerCmd{app: app}},
		{"login", "Log in and print a token", &loginCmd{app: app}},
		{"verify", "Verify a token and print its identity id", &verifyCmd{app: app}},
		{"passwd", "Change the password and print a new token", &passwdCmd{app: app}},
		{"revoke", "Revoke every token of an identity", &revokeCmd{app: app}},
		{"logout", "Forget the saved token of the server", &logoutCmd{app: app}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, "", c.data); err != nil {
			return err
		}
	}

	_, err := parser.ParseArgs(args)
	if app.closer != nil {
		_ = app.closer.Close()
	}
	var ferr *flags.Error
	if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
		_, _ = io.WriteString(out, ferr.Message+"\n")
		return nil
	}
	return err
}

// client builds the API client from config and global options on first use.
func (a *App) client() (API, error) {
	if a.api != nil {
		return a.api, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	a.api = newAPI(cfg)
	return a.api, nil
}

func (a *App) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if a.opts.Config != "" {
		if err := cfg.LoadJSON(a.opts.Config); err != nil {
			return nil, err
		}
	}
	if a.opts.Server != "" {
		cfg.ServerURL = a.opts.Server
	}
	if a.opts.SessionDB != "" {
		cfg.SessionDB = a.opts.SessionDB
	}
	if a.opts.Timeout != "" {
		d, err := parseDuration(a.opts.Timeout)
		if err != nil {
			return nil, err
		}
		cfg.RequestTimeout = d
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *App) callContext() (context.Context, context.CancelFunc, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(a.ctx, cfg.RequestTimeout)
	return ctx, cancel, nil
}

// ask returns value or, when it is empty, prompts for it.
func (a *App) ask(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errors.New(prompt + " is required")
	}
	return v, nil
}

// store opens the session database on first use.
func (a *App) store() (sessions.Repository, error) {
	if a.sessions != nil {
		return a.sessions, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	repo, closer, err := openSessions(a.ctx, cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("open session db %s: %w", cfg.SessionDB, err)
	}
	a.sessions, a.closer = repo, closer
	return repo, nil
}

// saveSession remembers s as the current session of the configured server.
func (a *App) saveSession(s *client.Session) error {
	repo, err := a.store()
	if err != nil {
		return err
	}
	return repo.Save(a.ctx, &sessions.Session{Server: a.cfg.ServerURL, IdentityID: s.ID, Token: s.Token})
}

// token returns value or, when it is empty, the saved token of the server.
func (a *App) token(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	repo, err := a.store()
	if err != nil {
		return "", err
	}
	s, err := repo.Get(a.ctx, a.cfg.ServerURL)
	if errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("no token given and no saved session for %s", a.cfg.ServerURL)
	}
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

func (a *App) forgetSession() error {
	repo, err := a.store()
	if err != nil {
		return err
	}
	return repo.Delete(a.ctx, a.cfg.ServerURL)
}
