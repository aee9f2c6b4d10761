package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/models"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Language     string             `json:"language" toml:"language" yaml:"language"`
		Git          GitConfig          `json:"git" toml:"git" yaml:"git"`
		Jira         JiraConfig         `json:"jira" toml:"jira" yaml:"jira"`
		Slack        SlackConfig        `json:"slack" toml:"slack" yaml:"slack"`
		GitHub       GitHubConfig       `json:"github" toml:"github" yaml:"github"`
		Repositories []RepositoryConfig `json:"repositories" toml:"repositories" yaml:"repositories"`

		PathFile string `json:"-" toml:"-" yaml:"-"`
	}

	GitConfig struct {
		MasterBranch                    string `json:"master_branch" toml:"master_branch" yaml:"master_branch"`
		Remote                          string `json:"remote" toml:"remote" yaml:"remote"`
		UatVersionPrefix                string `json:"uat_version_prefix" toml:"uat_version_prefix" yaml:"uat_version_prefix"`
		// IncrementVersionMessageTemplate is a text/template with {{.Version}}; the
		// rendered message must contain the new version.
		IncrementVersionMessageTemplate string `json:"increment_version_message_template" toml:"increment_version_message_template" yaml:"increment_version_message_template"`
		ManifestFile                    string `json:"manifest_file" toml:"manifest_file" yaml:"manifest_file"`
		AutoFetch                       bool   `json:"auto_fetch" toml:"auto_fetch" yaml:"auto_fetch"`
		AuthorName                      string `json:"author_name" toml:"author_name" yaml:"author_name"`
		Email                           string `json:"email" toml:"email" yaml:"email"`
		Username                        string `json:"username" toml:"username" yaml:"username"`
		Token                           string `json:"token,omitempty" toml:"token" yaml:"token"`
	}

	JiraConfig struct {
		URL              string        `json:"url" toml:"url" yaml:"url"`
		Username         string        `json:"username" toml:"username" yaml:"username"`
		Password         string        `json:"password,omitempty" toml:"password" yaml:"password"`
		ReleasableLabels []string      `json:"releasable_labels" toml:"releasable_labels" yaml:"releasable_labels"`
		Project          ProjectConfig `json:"project" toml:"project" yaml:"project"`
	}

	ProjectConfig struct {
		ID                     string              `json:"id" toml:"id" yaml:"id"`
		JQL                    string              `json:"jql,omitempty" toml:"jql" yaml:"jql"`
		FailedMessageTemplate  string              `json:"failed_message_template,omitempty" toml:"failed_message_template" yaml:"failed_message_template"`
		IncorrectIssueTemplate string              `json:"incorrect_issue_template,omitempty" toml:"incorrect_issue_template" yaml:"incorrect_issue_template"`
		MissingLabelsTemplate  string              `json:"missing_labels_template,omitempty" toml:"missing_labels_template" yaml:"missing_labels_template"`
		Rules                  []models.StatusRule `json:"rules" toml:"rules" yaml:"rules"`
	}

	SlackConfig struct {
		Token   string `json:"token,omitempty" toml:"token" yaml:"token"`
		Channel string `json:"channel" toml:"channel" yaml:"channel"`
	}

	GitHubConfig struct {
		Token           string `json:"token,omitempty" toml:"token" yaml:"token"`
		PublishReleases bool   `json:"publish_releases" toml:"publish_releases" yaml:"publish_releases"`
	}

	// RepositoryConfig overrides the git section for one repository.
	RepositoryConfig struct {
		Path             string `json:"path" toml:"path" yaml:"path"`
		MasterBranch     string `json:"master_branch,omitempty" toml:"master_branch" yaml:"master_branch"`
		Remote           string `json:"remote,omitempty" toml:"remote" yaml:"remote"`
		UatVersionPrefix string `json:"uat_version_prefix,omitempty" toml:"uat_version_prefix" yaml:"uat_version_prefix"`
		ManifestFile     string `json:"manifest_file,omitempty" toml:"manifest_file" yaml:"manifest_file"`
		TicketPrefix     string `json:"ticket_prefix,omitempty" toml:"ticket_prefix" yaml:"ticket_prefix"`
	}
)

const (
	DefaultConfigName = "config.json"

	defaultLang            = LangEN
	defaultMasterBranch    = "master"
	defaultRemote          = "origin"
	defaultManifestFile    = "package.json"
	defaultMessageTemplate = "Increment version to {{.Version}}"

	EnvGitToken     = "MATE_RELEASE_GIT_TOKEN"
	EnvJiraPassword = "MATE_RELEASE_JIRA_PASSWORD"
	EnvSlackToken   = "MATE_RELEASE_SLACK_TOKEN"
	EnvGitHubToken  = "MATE_RELEASE_GITHUB_TOKEN"
)

// LoadConfig reads the configuration at path, or ./config.json when path is
// empty. The decoder is picked by file extension.
func LoadConfig(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.ErrConfigMissing.WithError(err)
		}
		path = filepath.Join(cwd, DefaultConfigName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrConfigMissing.WithContext("path", path)
		}
		return nil, errors.ErrConfigInvalid.WithError(err).WithContext("path", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.ErrConfigFormat.WithContext("path", path)
	}
	if err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithContext("path", path)
	}

	cfg.PathFile = path
	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = defaultLang
	}
	if c.Git.MasterBranch == "" {
		c.Git.MasterBranch = defaultMasterBranch
	}
	if c.Git.Remote == "" {
		c.Git.Remote = defaultRemote
	}
	if c.Git.ManifestFile == "" {
		c.Git.ManifestFile = defaultManifestFile
	}
	if c.Git.IncrementVersionMessageTemplate == "" {
		c.Git.IncrementVersionMessageTemplate = defaultMessageTemplate
	}
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvGitToken, &c.Git.Token},
		{EnvJiraPassword, &c.Jira.Password},
		{EnvSlackToken, &c.Slack.Token},
		{EnvGitHubToken, &c.GitHub.Token},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return errors.ErrConfigInvalid.
			WithError(fmt.Errorf("no repositories configured")).
			WithSuggestion("Add at least one entry to repositories")
	}
	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo.Path) == "" {
			return errors.ErrConfigInvalid.WithError(fmt.Errorf("repositories[%d].path is empty", i))
		}
	}
	if c.Language != LangEN && c.Language != LangES {
		return errors.ErrConfigInvalid.WithError(fmt.Errorf("language %q is not supported", c.Language))
	}
	return nil
}

// ValidateTracker checks the Jira fields needed to gate releases and to
// validate the project.
func (c *Config) ValidateTracker() error {
	switch {
	case c.Jira.URL == "":
		return errors.ErrConfigInvalid.WithError(fmt.Errorf("jira.url is not configured"))
	case c.Jira.Username == "":
		return errors.ErrConfigInvalid.WithError(fmt.Errorf("jira.username is not configured"))
	case c.Jira.Password == "":
		return errors.ErrConfigInvalid.
			WithError(fmt.Errorf("jira.password is not configured")).
			WithSuggestion("Set jira.password or the " + EnvJiraPassword + " environment variable")
	case c.Jira.Project.ID == "":
		return errors.ErrConfigInvalid.WithError(fmt.Errorf("jira.project.id is not configured"))
	}
	return nil
}

func (c *Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.Channel != ""
}

// Targets resolves every repository against the git defaults. Relative paths
// are taken from the configuration file directory.
func (c *Config) Targets() []models.RepositoryTarget {
	baseDir := filepath.Dir(c.PathFile)

	targets := make([]models.RepositoryTarget, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		path := repo.Path
		if !filepath.IsAbs(path) && c.PathFile != "" {
			path = filepath.Join(baseDir, path)
		}

		targets = append(targets, models.RepositoryTarget{
			Path:                  filepath.Clean(path),
			MasterBranch:          firstNonEmpty(repo.MasterBranch, c.Git.MasterBranch),
			TagPrefix:             firstNonEmpty(repo.UatVersionPrefix, c.Git.UatVersionPrefix),
			RemoteName:            firstNonEmpty(repo.Remote, c.Git.Remote),
			ManifestFile:          firstNonEmpty(repo.ManifestFile, c.Git.ManifestFile),
			TicketPrefix:          firstNonEmpty(repo.TicketPrefix, c.Jira.Project.ID),
			CommitMessageTemplate: c.Git.IncrementVersionMessageTemplate,
			AutoFetch:             c.Git.AutoFetch,
			Credentials: models.Credentials{
				Username: firstNonEmpty(c.Git.Username, c.Git.Email),
				Token:    c.Git.Token,
			},
			Author: models.Author{
				Name:  c.Git.AuthorName,
				Email: c.Git.Email,
			},
		})
	}
	return targets
}

// Masked returns a copy with every secret replaced, for display.
func (c *Config) Masked() Config {
	masked := *c
	masked.Git.Token = mask(c.Git.Token)
	masked.Jira.Password = mask(c.Jira.Password)
	masked.Slack.Token = mask(c.Slack.Token)
	masked.GitHub.Token = mask(c.GitHub.Token)
	return masked
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
