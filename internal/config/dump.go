package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// Dump writes the effective configuration as TOML. Durations are written in
// their string form so the output can be fed back through Load.
func (c *Config) Dump(w io.Writer) error {
	view := dumpView{
		Server: serverView{
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout.String(),
			WriteTimeout:    c.Server.WriteTimeout.String(),
			IdleTimeout:     c.Server.IdleTimeout.String(),
			ShutdownTimeout: c.Server.ShutdownTimeout.String(),
			RequestTimeout:  c.Server.RequestTimeout.String(),
		},
		Store: storeView{
			Driver:   c.Store.Driver,
			Memory:   memoryView{Fixture: c.Store.Memory.Fixture},
			XLSX:     xlsxView(c.Store.XLSX),
			Postgres: postgresView{URL: redactURL(c.Store.Postgres.URL)},
		},
		Portal:      portalView(c.Portal),
		Events:      eventsView(c.Events),
		Theme:       themeView(c.Theme),
		RateLimiter: rateLimiterView(c.RateLimiter),
		Metrics:     metricsView(c.Metrics),
		Logging:     loggingView(c.Logging),
	}
	if err := toml.NewEncoder(w).Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	return "<redacted>"
}

type dumpView struct {
	Server      serverView      `toml:"server"`
	Store       storeView       `toml:"store"`
	Portal      portalView      `toml:"portal"`
	Events      eventsView      `toml:"events"`
	Theme       themeView       `toml:"theme"`
	RateLimiter rateLimiterView `toml:"rate_limiter"`
	Metrics     metricsView     `toml:"metrics"`
	Logging     loggingView     `toml:"logging"`
}

type serverView struct {
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	RequestTimeout  string `toml:"request_timeout"`
}

type storeView struct {
	Driver   string       `toml:"driver"`
	Memory   memoryView   `toml:"memory"`
	XLSX     xlsxView     `toml:"xlsx"`
	Postgres postgresView `toml:"postgres"`
}

type memoryView struct {
	Fixture string `toml:"fixture"`
}

type xlsxView struct {
	Path     string `toml:"path"`
	Bucket   string `toml:"bucket"`
	Key      string `toml:"key"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

type postgresView struct {
	URL string `toml:"url"`
}

type portalView struct {
	DataTable    string `toml:"data_table"`
	ConfigTable  string `toml:"config_table"`
	TokenParam   string `toml:"token_param"`
	StrictTokens bool   `toml:"strict_tokens"`
}

type eventsView struct {
	NATSURL string `toml:"nats_url"`
	Prefix  string `toml:"prefix"`
}

type themeView struct {
	Files        []string `toml:"files"`
	Name         string   `toml:"name"`
	Variant      string   `toml:"variant"`
	TemplatesDir string   `toml:"templates_dir"`
}

type rateLimiterView struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
}

type metricsView struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type loggingView struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}
