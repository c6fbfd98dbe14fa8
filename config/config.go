package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/repo_editor/templating"
)

// Provider selects the remote repository backend.
type Provider string

const (
	// ProviderGitHub talks to github.com or GitHub
	// Enterprise.
	ProviderGitHub Provider = "github"
	// ProviderGitLab talks to a GitLab project.
	ProviderGitLab Provider = "gitlab"
	// ProviderMemory keeps an in-process repository.
	ProviderMemory Provider = "memory"
)

// Config aggregates runtime configuration.
type Config struct {
	Provider   Provider             `yaml:"provider"`
	Repository RepositoryConfig     `yaml:"repository"`
	GitHub     GitHubConfig         `yaml:"github"`
	GitLab     GitLabConfig         `yaml:"gitlab"`
	Session    SessionConfig        `yaml:"session"`
	Server     ServerConfig         `yaml:"server"`
	Workflow   WorkflowConfig       `yaml:"workflow"`
	Data       DataConfig           `yaml:"data"`
	Templates  templating.Templates `yaml:"templates"`
}

// RepositoryConfig is the repository coordinate.
type RepositoryConfig struct {
	Owner         string `yaml:"owner"`
	Name          string `yaml:"name"`
	DefaultBranch string `yaml:"default_branch"`
	// Path is an optional subdirectory every edited
	// path is resolved under.
	Path string `yaml:"path"`
}

// GitHubConfig holds GitHub credentials.
type GitHubConfig struct {
	Token          string `yaml:"token"`
	EnterpriseHost string `yaml:"enterprise_host"`
}

// GitLabConfig holds GitLab credentials.
type GitLabConfig struct {
	Host  string `yaml:"host"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`
}

// SessionConfig holds the login secret and the
// credential signing settings.
type SessionConfig struct {
	MagicLoginToken string        `yaml:"magic_login_token"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TTL             time.Duration `yaml:"ttl"`
	CookieSecure    bool          `yaml:"cookie_secure"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WorkflowConfig tunes revision submissions.
type WorkflowConfig struct {
	StepTimeout        time.Duration `yaml:"step_timeout"`
	BranchPrefix       string        `yaml:"branch_prefix"`
	BranchRetries      int           `yaml:"branch_retries"`
	BranchRetryBackoff time.Duration `yaml:"branch_retry_backoff"`
}

// DataConfig locates the editable files.
type DataConfig struct {
	Dir string `yaml:"dir"`
	Ext string `yaml:"ext"`
}

// ConfigurationError lists every problem found while
// loading or validating a Config.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " +
		strings.Join(e.Problems, "; ")
}

// Default returns a Config holding the default values.
func Default() Config {
	return Config{
		Provider: ProviderGitHub,
		Repository: RepositoryConfig{
			DefaultBranch: "main",
		},
		Session: SessionConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Workflow: WorkflowConfig{
			StepTimeout:        10 * time.Second,
			BranchPrefix:       "update-csv-",
			BranchRetries:      2,
			BranchRetryBackoff: 100 * time.Millisecond,
		},
		Data: DataConfig{
			Dir: "data",
			Ext: ".csv",
		},
	}
}

// Load builds a Config from defaults, the optional YAML
// file at path, and environment variables, in that
// order of precedence, then validates it.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with a custom environment lookup.
func LoadWithEnv(
	path string,
	getenv func(string) string,
) (*Config, error) {
	const errCtx = "loading configuration"

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		if err := yaml.UnmarshalWithOptions(
			raw, &cfg, yaml.DisallowUnknownField(),
		); err != nil {
			return nil, &ConfigurationError{Problems: []string{
				fmt.Sprintf("%s: %s", path, err),
			}}
		}
	}

	env := envReader{getenv: getenv}
	env.apply(&cfg)

	if len(env.problems) > 0 {
		return nil, &ConfigurationError{Problems: env.problems}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every missing or inconsistent value
// at once.
func (c *Config) Validate() error {
	var problems []string

	require := func(val, name string) {
		if strings.TrimSpace(val) == "" {
			problems = append(problems, name+" must be set")
		}
	}

	switch c.Provider {
	case ProviderGitHub:
		require(c.Repository.Owner, "GITHUB_OWNER")
		require(c.Repository.Name, "GITHUB_REPO")
		require(c.GitHub.Token, "GITHUB_TOKEN")
	case ProviderGitLab:
		require(c.GitLab.Repo, "GITLAB_REPO")
		require(c.GitLab.Token, "GITLAB_TOKEN")
	case ProviderMemory:
	default:
		problems = append(problems, fmt.Sprintf(
			"EDITOR_PROVIDER %q is not one of github, gitlab, memory",
			c.Provider,
		))
	}

	require(c.Repository.DefaultBranch, "GITHUB_DEFAULT_BRANCH")
	require(c.Session.MagicLoginToken, "MAGIC_LOGIN_TOKEN")
	require(c.Session.JWTSecret, "JWT_SECRET")
	require(c.Server.Addr, "API_ADDR")

	if c.Session.TTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}

	if c.Workflow.StepTimeout <= 0 {
		problems = append(problems, "STEP_TIMEOUT must be positive")
	}

	if c.Workflow.BranchRetries < 0 {
		problems = append(problems, "BRANCH_RETRIES must not be negative")
	}

	if c.Workflow.BranchRetryBackoff < 0 {
		problems = append(problems, "BRANCH_RETRY_BACKOFF must not be negative")
	}

	var eng templating.Engine

	if err := eng.Validate(c.Templates.WithDefaults()); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}

	return nil
}

// envReader applies environment overrides and collects
// unparsable values.
type envReader struct {
	getenv   func(string) string
	problems []string
}

func (e *envReader) apply(c *Config) {
	e.str("EDITOR_PROVIDER", (*string)(&c.Provider))

	e.str("GITHUB_OWNER", &c.Repository.Owner)
	e.str("GITHUB_REPO", &c.Repository.Name)
	e.str("GITHUB_DEFAULT_BRANCH", &c.Repository.DefaultBranch)
	e.str("GITHUB_PATH", &c.Repository.Path)
	e.str("GITHUB_TOKEN", &c.GitHub.Token)
	e.str("GITHUB_ENTERPRISE_HOST", &c.GitHub.EnterpriseHost)

	e.str("GITLAB_HOST", &c.GitLab.Host)
	e.str("GITLAB_REPO", &c.GitLab.Repo)
	e.str("GITLAB_TOKEN", &c.GitLab.Token)

	e.str("MAGIC_LOGIN_TOKEN", &c.Session.MagicLoginToken)
	e.str("JWT_SECRET", &c.Session.JWTSecret)
	e.duration("SESSION_TTL", &c.Session.TTL)
	e.boolean("COOKIE_SECURE", &c.Session.CookieSecure)

	e.str("API_ADDR", &c.Server.Addr)

	e.duration("STEP_TIMEOUT", &c.Workflow.StepTimeout)
	e.str("BRANCH_PREFIX", &c.Workflow.BranchPrefix)
	e.integer("BRANCH_RETRIES", &c.Workflow.BranchRetries)
	e.duration("BRANCH_RETRY_BACKOFF", &c.Workflow.BranchRetryBackoff)

	e.str("DATA_DIR", &c.Data.Dir)
	e.str("DATA_EXT", &c.Data.Ext)

	c.Provider = Provider(strings.ToLower(string(c.Provider)))
}

func (e *envReader) str(key string, dst *string) {
	if val := e.getenv(key); val != "" {
		*dst = val
	}
}

func (e *envReader) integer(key string, dst *int) {
	val := e.getenv(key)
	if val == "" {
		return
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf(
			"%s: %q is not an integer", key, val,
		))

		return
	}

	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	val := e.getenv(key)
	if val == "" {
		return
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf(
			"%s: %q is not a duration", key, val,
		))

		return
	}

	*dst = d
}

func (e *envReader) boolean(key string, dst *bool) {
	val := e.getenv(key)
	if val == "" {
		return
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf(
			"%s: %q is not a boolean", key, val,
		))

		return
	}

	*dst = b
}
