package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/toonretouch/internal/theme"
)

// DefaultAPIURL is the backend root used when nothing else is configured.
const DefaultAPIURL = "http://localhost:8000/api"

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIURL  = "TOONRETOUCH_API_URL"
	EnvTheme   = "TOONRETOUCH_THEME"
	EnvSaveDir = "TOONRETOUCH_SAVE_DIR"
)

// Erase holds erase request settings.
type Erase struct {
	Timeout time.Duration
}

// Brush holds the initial brush settings.
type Brush struct {
	Size      int
	MaskColor color.RGBA
}

// History holds undo settings.
type History struct {
	SeedOnLoad bool
}

// Notify holds notification settings.
type Notify struct {
	Erase bool
	Save  bool
	Copy  bool
}

// Config holds the application configuration.
type Config struct {
	APIURL  string
	Theme   string
	SaveDir string
	Erase   Erase
	Brush   Brush
	History History
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		APIURL: DefaultAPIURL,
		Theme:  "", // Default to empty to allow fallback to Env/Default
		Erase:  Erase{Timeout: 60 * time.Second},
		Brush: Brush{
			Size:      30,
			MaskColor: color.RGBA{255, 0, 0, 128},
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// ApplyEnv overrides settings from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := getenv(EnvSaveDir); v != "" {
		c.SaveDir = v
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.APIURL != "" {
		fmt.Fprintf(&sb, "api_url = %s\n", c.APIURL)
	}
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[erase]\n")
	fmt.Fprintf(&sb, "timeout = %s\n", c.Erase.Timeout)
	sb.WriteString("\n")

	sb.WriteString("[brush]\n")
	fmt.Fprintf(&sb, "size = %d\n", c.Brush.Size)
	fmt.Fprintf(&sb, "mask_color = %s\n", theme.Hex(c.Brush.MaskColor))
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "seed_on_load = %v\n", c.History.SeedOnLoad)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "erase = %v\n", c.Notify.Erase)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
