package commands

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/cli/credstore"
	"github.com/bookadmin-dev/bookadmin/internal/cli/output"
	"github.com/bookadmin-dev/bookadmin/internal/cli/prompt"
	"github.com/bookadmin-dev/bookadmin/internal/cli/userconfig"
	"github.com/bookadmin-dev/bookadmin/internal/config"
	"github.com/bookadmin-dev/bookadmin/internal/logger"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// options holds the dependencies of a command. Tests replace them through
// the With* functions; production code uses the defaults.
type options struct {
	cfg        *config.Config
	store      session.Store
	httpClient *http.Client
	out        io.Writer
	prompter   prompt.Prompter
	userConfig *userconfig.Store
}

// Option configures a command
type Option func(*options)

// WithConfig sets the configuration instead of reading the environment
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithStore sets the credential store
func WithStore(store session.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHTTPClient sets the HTTP client used to reach the admin API
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithOutput sets the writer for command output
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithPrompter sets the source of interactive input
func WithPrompter(p prompt.Prompter) Option {
	return func(o *options) {
		o.prompter = p
	}
}

// WithUserConfig sets the store holding local preferences
func WithUserConfig(s *userconfig.Store) Option {
	return func(o *options) {
		o.userConfig = s
	}
}

func buildOptions(opts []Option) *options {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// app is the wired session, client and presentation settings shared by the
// commands that talk to the admin API
type app struct {
	cfg     *config.Config
	session *session.Manager
	client  *client.Client
	out     io.Writer
	theme   string
}

func newApp(o *options) (*app, error) {
	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w\nSet BOOKADMIN_API_KEY in the environment or in a .env file", err)
		}
		cfg = loaded
	}

	log := logger.GetLogger()

	store := o.store
	if store == nil {
		s, err := credstore.New(cfg.Storage.Backend, apiNamespace(cfg.API.URL), cfg.Storage.File)
		if err != nil {
			return nil, err
		}
		store = s
	}

	apiClient := client.New(cfg.API.URL, cfg.API.Key,
		client.WithTimeout(cfg.API.Timeout),
		client.WithInsecureTLS(cfg.API.Insecure),
		client.WithLogger(log),
	)
	if o.httpClient != nil {
		apiClient.SetHTTPClient(o.httpClient)
	}

	mgr := session.NewManager(store, apiClient, session.WithLogger(log))
	apiClient.SetSession(mgr)

	return &app{
		cfg:     cfg,
		session: mgr,
		client:  apiClient,
		out:     o.out,
		theme:   resolveTheme(o, cfg.UI.Theme),
	}, nil
}

// requireSession restores the persisted session and fails when there is none
func (a *app) requireSession() error {
	if a.session.LoadFromStorage().Empty() {
		return session.ErrNotAuthenticated
	}
	return nil
}

func (a *app) printer(format string) (*output.Printer, error) {
	return output.New(a.out, format, a.theme)
}

// apiNamespace scopes stored credentials to the API host
func apiNamespace(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return apiURL
	}
	return u.Host
}

func userConfigStore(o *options) (*userconfig.Store, error) {
	if o.userConfig != nil {
		return o.userConfig, nil
	}
	return userconfig.DefaultStore()
}

// resolveTheme returns the stored theme, falling back to the configured one
func resolveTheme(o *options, fallback string) string {
	store, err := userConfigStore(o)
	if err != nil {
		logger.Logger.Debug().Err(err).Msg("Failed to locate user config")
		return fallback
	}
	theme, err := store.Theme(fallback)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Failed to read theme preference")
		return fallback
	}
	return theme
}

func prompterFor(o *options, theme string) prompt.Prompter {
	if o.prompter != nil {
		return o.prompter
	}
	return prompt.NewTerminal(theme)
}

func addOutputFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", output.FormatTable, "Output format: table, json or yaml")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", arg)
	}
	return id, nil
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
