package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentx-labs/pkginstall/internal/branding"
	"github.com/agentx-labs/pkginstall/internal/config"
	"github.com/agentx-labs/pkginstall/internal/i18n"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

// session is the per-invocation state every command builds from the
// persistent flags.
type session struct {
	root   string
	cfg    *config.Config
	layout workspace.Layout
	logger *zap.Logger
	tr     *i18n.Translator
}

// newSession loads the project configuration. When allowMissing is set a
// missing config file yields the defaults instead of an error.
func newSession(stderr io.Writer, allowMissing bool) (*session, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	logger := newLogger(stderr, flagVerbose)

	path := configPath(root)
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, config.ErrNotFound) && allowMissing:
		logger.Debug("no config file, using defaults", zap.String("path", path))
		cfg = config.Default()
	case errors.Is(err, config.ErrNotFound):
		return nil, fmt.Errorf("%w (run '%s init' to create one)", err, branding.CLIName())
	case err != nil:
		return nil, err
	}

	layout, err := cfg.Layout(root)
	if err != nil {
		return nil, err
	}

	tr, err := i18n.Load(layout.LanguageDir, cfg.Language)
	if err != nil {
		logger.Warn("cannot load translations, using English", zap.String("language", cfg.Language), zap.Error(err))
		tr = i18n.English()
	}

	return &session{root: root, cfg: cfg, layout: layout, logger: logger, tr: tr}, nil
}

func projectRoot() (string, error) {
	if flagProject != "" {
		return filepath.Abs(flagProject)
	}
	return os.Getwd()
}

func configPath(root string) string {
	if flagConfig != "" {
		if abs, err := filepath.Abs(flagConfig); err == nil {
			return abs
		}
		return flagConfig
	}
	if v := os.Getenv(branding.EnvVar("CONFIG")); v != "" {
		return v
	}
	return config.FilePath(root)
}

// newLogger builds a console logger writing to w. Debug output is enabled
// by --verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	if !verbose {
		enc.NameKey = ""
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core).Named(branding.CLIName())
}
