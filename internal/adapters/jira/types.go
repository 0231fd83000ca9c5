package jira

import "encoding/json"

// Wire shapes of the Jira REST and Agile APIs. Only what the converters
// read is declared.

type rawPage struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []rawIssue `json:"issues"`
}

type rawIssue struct {
	ID        string          `json:"id"`
	Key       string          `json:"key"`
	Fields    json.RawMessage `json:"fields"`
	Changelog *rawChangelog   `json:"changelog"`
}

type rawFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	IssueType   *rawNamed       `json:"issuetype"`
	Priority    *rawNamed       `json:"priority"`
	Status      *rawStatus      `json:"status"`
	Assignee    *rawUser        `json:"assignee"`
	Project     *rawProject     `json:"project"`
	Created     string          `json:"created"`
	Resolution  string          `json:"resolutiondate"`
	DueDate     string          `json:"duedate"`
	FixVersions []rawVersion    `json:"fixVersions"`
}

type rawNamed struct {
	Name string `json:"name"`
}

type rawStatus struct {
	Name     string `json:"name"`
	Category struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory"`
}

type rawUser struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress"`
	Active      bool   `json:"active"`
}

type rawProject struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type rawVersion struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ProjectID   json.RawMessage `json:"projectId"`
	ReleaseDate string          `json:"releaseDate"`
	Released    bool            `json:"released"`
	Archived    bool            `json:"archived"`
	Self        string          `json:"self"`
}

type rawChangelog struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Histories  []rawHistory `json:"histories"`
}

type rawHistory struct {
	Created string    `json:"created"`
	Items   []rawItem `json:"items"`
}

type rawItem struct {
	Field      string  `json:"field"`
	FromString *string `json:"fromString"`
	ToString   *string `json:"toString"`
}

type rawMembers struct {
	StartAt int       `json:"startAt"`
	Total   int       `json:"total"`
	IsLast  bool      `json:"isLast"`
	Values  []rawUser `json:"values"`
}
