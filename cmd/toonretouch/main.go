package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/example/toonretouch/internal/config"
	"github.com/example/toonretouch/internal/notify"
	"github.com/example/toonretouch/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *pflag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	configPath  string
	logLevel    string
	apiURL      string
	saveDir     string
	eraseAlerts bool
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:     program,
		notifier:    r.notifier,
		config:      r.config,
		configPath:  r.configPath,
		apiURL:      r.apiURL,
		saveDir:     r.saveDir,
		eraseAlerts: r.eraseAlerts,
		saveAlerts:  r.saveAlerts,
		copyAlerts:  r.copyAlerts,
		themeName:   r.themeName,
		activeTheme: r.activeTheme,
	}
}

func (r *root) FlagSet() *pflag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:       pflag.NewFlagSet("toonretouch", pflag.ContinueOnError),
		program:  "toonretouch",
		notifier: notify.New(notify.LoadPreferences()),
	}
	r.fs.SetInterspersed(false)
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "path to the configuration file")
	r.fs.StringVar(&r.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	r.fs.StringVar(&r.apiURL, "api-url", "", "backend API root, e.g. http://localhost:8000/api")
	r.fs.StringVar(&r.saveDir, "save-dir", "", "directory downloads are written to")
	r.fs.BoolVar(&r.eraseAlerts, "notify-erase", false, "show a desktop notification after an erase is applied")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", false, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying to the clipboard")
	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, or a theme file)")
	r.fs.Usage = usageFunc(r)
	return r
}

func setupLogging(levelName string) error {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

// loadConfig reads the config file and applies environment overrides and the
// root flags on top of it.
func (r *root) loadConfig(getenv func(string) string) *config.Config {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	if err != nil {
		logrus.WithError(err).Warn("failed to load config")
		cfg = config.New()
	}
	cfg.ApplyEnv(getenv)
	if r.apiURL != "" {
		cfg.APIURL = r.apiURL
	}
	if r.saveDir != "" {
		cfg.SaveDir = r.saveDir
	}
	if r.themeName != "" {
		cfg.Theme = r.themeName
	}
	return cfg
}

// resolveTheme picks the theme named in cfg: config-defined themes first, then
// files, built-ins and theme directories.
func resolveTheme(cfg *config.Config) *theme.Theme {
	name := cfg.Theme
	if t, ok := cfg.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			logrus.WithError(err).WithField("theme", name).Warn("failed to load theme, using default")
		}
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return &UsageError{of: r}
		}
		return err
	}
	if err := setupLogging(r.logLevel); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	r.config = r.loadConfig(os.Getenv)
	if r.notifier != nil {
		r.notifier.Enable(notify.EventErase, r.eraseAlerts || r.config.Notify.Erase)
		r.notifier.Enable(notify.EventSave, r.saveAlerts || r.config.Notify.Save)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts || r.config.Notify.Copy)
	}
	r.activeTheme = resolveTheme(r.config)

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "erase":
		cmd, err = parseEraseCmd(subArgs, r)
	case "serve-stub":
		cmd, err = parseServeStubCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifyErase(detail string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Erase(detail, img)
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}
