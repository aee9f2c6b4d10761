package services

import (
	"context"
	"strings"

	"github.com/thomas-vilte/materelease/internal/config"
	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
)

type issueSource interface {
	GetIssues(ctx context.Context) ([]models.Issue, error)
}

// ProjectValidator checks that every issue of the tracker project carries
// one of the labels its status requires.
type ProjectValidator struct {
	tracker  issueSource
	notifier messageSender
	cfg      config.JiraConfig
	trans    *i18n.Translations
}

func NewProjectValidator(tracker issueSource, notifier messageSender, cfg config.JiraConfig, trans *i18n.Translations) *ProjectValidator {
	return &ProjectValidator{
		tracker:  tracker,
		notifier: notifier,
		cfg:      cfg,
		trans:    trans,
	}
}

// Validate fails with ErrProjectValidation when an issue is mislabeled. The
// report is logged and, when notify is set, sent to chat first.
func (v *ProjectValidator) Validate(ctx context.Context, notify bool) error {
	log := logger.FromContext(ctx)

	issues, err := v.IncorrectIssues(ctx)
	if err != nil {
		return err
	}
	log.Info("found incorrect jira issues", "count", len(issues))
	if len(issues) == 0 {
		return nil
	}

	message, err := v.BuildMessage(issues)
	if err != nil {
		return err
	}
	log.Info("validation message:\n" + message)

	switch {
	case !notify:
		log.Info("message won't be sent to slack")
	case v.notifier == nil:
		log.Warn("slack is not configured, message won't be sent")
	default:
		log.Info("sending validation message to slack")
		ok, errMsg, err := v.notifier.SendMessage(ctx, message)
		if err != nil {
			log.Warn("failed to send message to slack", "error", err)
		} else if !ok {
			log.Warn("failed to send message to slack", "error", errMsg)
		}
	}

	return domainErrors.ErrProjectValidation.WithContext("count", len(issues))
}

// IncorrectIssues returns the issues that have none of the labels their
// status rule asks for. A status without a rule is a configuration error.
func (v *ProjectValidator) IncorrectIssues(ctx context.Context) ([]models.Issue, error) {
	issues, err := v.tracker.GetIssues(ctx)
	if err != nil {
		return nil, err
	}

	var incorrect []models.Issue
	for _, issue := range issues {
		rule, ok := v.ruleFor(issue.Status)
		if !ok {
			return nil, domainErrors.ErrMissingStatusRule.
				WithContext("status", issue.Status).
				WithContext("ticket", issue.ID)
		}
		if !hasAnyLabel(issue.Labels, rule.Labels) {
			logger.Debug(ctx, "issue with incorrect labels", "ticket", issue.ID)
			incorrect = append(incorrect, issue)
		}
	}
	return incorrect, nil
}

func (v *ProjectValidator) ruleFor(status string) (models.StatusRule, bool) {
	for _, rule := range v.cfg.Project.Rules {
		if strings.EqualFold(rule.Status, status) {
			return rule, true
		}
	}
	return models.StatusRule{}, false
}

// BuildMessage renders the report with the configured templates, falling back
// to the translated defaults.
func (v *ProjectValidator) BuildMessage(issues []models.Issue) (string, error) {
	baseURL := strings.TrimRight(v.cfg.URL, "/")

	var lines strings.Builder
	for _, issue := range issues {
		data := map[string]interface{}{
			"URL":    baseURL,
			"ID":     issue.ID,
			"Status": issue.Status,
			"Labels": strings.Join(issue.Labels, ","),
		}

		var line string
		var err error
		if len(issue.Labels) > 0 {
			line, err = v.render(v.cfg.Project.IncorrectIssueTemplate, "validation_incorrect_issue", data)
		} else {
			line, err = v.render(v.cfg.Project.MissingLabelsTemplate, "validation_missing_labels", data)
		}
		if err != nil {
			return "", err
		}
		lines.WriteString(line)
		lines.WriteString("\n")
	}

	return v.render(v.cfg.Project.FailedMessageTemplate, "validation_failed_message", map[string]interface{}{
		"Issues": lines.String(),
	})
}

func (v *ProjectValidator) render(configured, messageID string, data map[string]interface{}) (string, error) {
	if configured == "" {
		return v.trans.GetMessage(messageID, 0, data), nil
	}
	msg, err := renderTemplate(messageID, configured, data)
	if err != nil {
		return "", domainErrors.ErrConfigInvalid.WithError(err).WithContext("template", messageID)
	}
	return msg, nil
}

func hasAnyLabel(labels, accepted []string) bool {
	for _, label := range labels {
		for _, want := range accepted {
			if label == want {
				return true
			}
		}
	}
	return false
}
