package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	cachepackage "product-console/cache"
	"product-console/catalog"
	"product-console/client"
	"product-console/config"
	"product-console/database"
	"product-console/session"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// TokenEnv seeds the in-memory session of --ephemeral runs
const TokenEnv = config.EnvPrefix + "_TOKEN"

var initLogging sync.Once

// app holds what a command run needs. It is built lazily by open so that
// commands such as version work without a config or session store.
type app struct {
	configPath string
	verbose    bool
	ephemeral  bool
	logToFile  bool

	loader   *config.Loader
	cfg      *config.Config
	log      *zap.Logger
	sessions *session.Provider
	client   *client.Client
	closers  []func() error
}

// open loads the config and wires the logger, session store and client,
// in the same order the service used to start up
func (a *app) open(ctx context.Context) error {
	initLogging.Do(func() {
		logger.Init(logger.LoggerConfig{
			CallerKey:  "file",
			TimeKey:    "timestamp",
			CallerSkip: 1,
		})
	})

	loader, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.loader = loader
	a.cfg = loader.Config()

	if a.log == nil {
		if a.log, err = a.buildLogger(); err != nil {
			return err
		}
		a.closers = append(a.closers, func() error {
			a.log.Sync()
			return nil
		})
	}
	logger.Debug("Starting product console", zap.String("config", loader.Path()), zap.String("api_host", a.cfg.API.Host))

	store, err := a.openStore()
	if err != nil {
		return err
	}
	a.sessions = session.NewProvider(store, session.WithLogger(a.log.Named("session")))

	if a.ephemeral {
		if token := os.Getenv(TokenEnv); token != "" {
			if err := a.sessions.Establish(ctx, token, 0); err != nil {
				return err
			}
		}
	}

	a.client, err = client.New(a.cfg.API.Host, a.sessions,
		client.WithTimeout(a.cfg.API.Timeout),
		client.WithLogger(a.log.Named("client")),
	)
	return err
}

func (a *app) openStore() (session.Store, error) {
	if a.ephemeral {
		c, err := cachepackage.InitializeCache()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			c.Close()
			return nil
		})
		return session.NewCacheStore(c), nil
	}

	dbConn, err := database.InitializeDatabase(a.cfg.Session.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, dbConn.Close)
	return session.NewSQLiteStore(dbConn)
}

// buildLogger writes to stderr, or to the log file for the full screen browser
func (a *app) buildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(a.cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level.SetLevel(zap.DebugLevel)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.DisableStacktrace = true
	if a.logToFile {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Log.File), 0o700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		zc.OutputPaths = []string{a.cfg.Log.File}
		zc.ErrorOutputPaths = []string{a.cfg.Log.File}
	} else {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.OutputPaths = []string{"stderr"}
	}
	return zc.Build()
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) newList(prefilter bool) *catalog.ListModel {
	return catalog.NewListModel(a.client,
		catalog.WithSessions(a.sessions),
		catalog.WithServerPrefilter(prefilter || a.cfg.List.ServerPrefilter),
		catalog.WithListLogger(a.log.Named("catalog")),
	)
}

// console prompts on the command's input and output streams
type console struct {
	in  io.Reader
	buf *bufio.Reader
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: in, buf: bufio.NewReader(in), out: out}
}

// prompt reads one line after writing label
func (c *console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.buf.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(strings.TrimSpace(label), ":")), err)
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo from a terminal, otherwise a plain line
func (c *console) password(label string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, label)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	return c.prompt(label)
}
