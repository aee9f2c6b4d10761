package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/thomas-vilte/materelease/internal/config"
	"github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/httpclient"
	"github.com/thomas-vilte/materelease/internal/logger"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/tickets"
)

const searchPageSize = 50

var _ tickets.TicketManager = (*JiraService)(nil)

// JiraService talks to the Jira Cloud REST API v3.
type JiraService struct {
	baseURL   string
	username  string
	password  string
	projectID string
	jql       string
	client    httpclient.HTTPClient
}

func NewJiraService(cfg config.JiraConfig, client httpclient.HTTPClient) *JiraService {
	return &JiraService{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		username:  cfg.Username,
		password:  cfg.Password,
		projectID: cfg.Project.ID,
		jql:       cfg.Project.JQL,
		client:    client,
	}
}

type (
	issueFields struct {
		Labels []string `json:"labels"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
	}

	issueResponse struct {
		Key    string      `json:"key"`
		Fields issueFields `json:"fields"`
	}

	searchResponse struct {
		Issues        []issueResponse `json:"issues"`
		NextPageToken string          `json:"nextPageToken"`
		IsLast        bool            `json:"isLast"`
	}
)

// GetLabels returns the labels of a single ticket.
func (s *JiraService) GetLabels(ctx context.Context, ticketID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=labels", s.baseURL, url.PathEscape(ticketID))

	var issue issueResponse
	if err := s.getJSON(ctx, endpoint, &issue); err != nil {
		return nil, errors.ErrTrackerQuery.WithError(err).WithContext("ticket", ticketID)
	}

	logger.Debug(ctx, "jira ticket labels", "ticket", ticketID, "labels", strings.Join(issue.Fields.Labels, ","))
	return issue.Fields.Labels, nil
}

// GetIssues returns every issue of the configured project, following the
// enhanced search API token pagination.
func (s *JiraService) GetIssues(ctx context.Context) ([]models.Issue, error) {
	jql := fmt.Sprintf("project = %s", s.projectID)
	if s.jql != "" {
		jql = fmt.Sprintf("%s AND (%s)", jql, s.jql)
	}

	var issues []models.Issue
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("fields", "status,labels")
		params.Set("maxResults", strconv.Itoa(searchPageSize))
		if pageToken != "" {
			params.Set("nextPageToken", pageToken)
		}

		var page searchResponse
		endpoint := fmt.Sprintf("%s/rest/api/3/search/jql?%s", s.baseURL, params.Encode())
		if err := s.getJSON(ctx, endpoint, &page); err != nil {
			return nil, errors.ErrTrackerQuery.WithError(err).WithContext("project", s.projectID)
		}

		for _, issue := range page.Issues {
			issues = append(issues, models.Issue{
				ID:     issue.Key,
				Status: issue.Fields.Status.Name,
				Labels: issue.Fields.Labels,
			})
		}

		if page.IsLast || page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	logger.Debug(ctx, "jira project issues", "project", s.projectID, "total", len(issues))
	return issues, nil
}

func (s *JiraService) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", getBasicAuth(s.username, s.password))
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn(ctx, "error closing response body", "error", err)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("not found in jira: %s", resp.Status)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized: check your jira credentials (%s)", resp.Status)
	default:
		return fmt.Errorf("unexpected jira response: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func getBasicAuth(username, token string) string {
	credentials := fmt.Sprintf("%s:%s", username, token)
	return fmt.Sprintf("Basic %s", base64.StdEncoding.EncodeToString([]byte(credentials)))
}
