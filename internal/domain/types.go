package domain

import "time"

// StatusCategory is Jira's coarse status bucket, independent of workflow.
type StatusCategory string

const (
	StatusToDo       StatusCategory = "To Do"
	StatusInProgress StatusCategory = "In Progress"
	StatusDone       StatusCategory = "Done"
)

// Valid reports whether c is one of the three Jira categories.
func (c StatusCategory) Valid() bool {
	switch c {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// FieldStoryPoints is the changelog field name Jira uses for estimates.
const FieldStoryPoints = "Story Points"

type Issue struct {
	ID             string
	Key            string
	Project        string
	Summary        string
	Description    string
	Type           string
	Priority       string
	Status         string
	StatusCategory StatusCategory
	Assignee       *User
	EpicKey        string
	Rank           string
	StoryPoints    *float64
	CreatedAt      *time.Time
	ResolvedAt     *time.Time
	DueAt          *time.Time
	FixVersions    []Version
	History        []HistoryEntry
}

// HistoryEntry is one changelog record; Items changed together at At.
type HistoryEntry struct {
	At    time.Time
	Items []FieldChange
}

type FieldChange struct {
	Field string
	From  *string
	To    *string
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Active      bool   `json:"active"`
}

// Unassigned stands in for issues without an assignee.
var Unassigned = User{ID: "Unassigned", DisplayName: "Unassigned"}

type Project struct {
	ID   string
	Key  string
	Name string
}

type Version struct {
	ID          string     `json:"id"`
	Name        string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"-"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Released    bool       `json:"released"`
	Archived    bool       `json:"-"`
	URL         string     `json:"jira_release_url,omitempty"`
}

// IssueDigest summarises the issues of one chapter under one epic.
type IssueDigest struct {
	ID                string `json:"id"`
	ChapterKey        string `json:"chapter_key"`
	EpicKey           string `json:"epic_key"`
	NavURL            string `json:"jira_nav_url"`
	TotalStoryPoints  int    `json:"ttl_story_pts"`
	TotalIssues       int    `json:"ttl_issue_cnt"`
	UnestimatedIssues int    `json:"unestimated_issue_cnt"`
	Users             []User `json:"users"`
}

type Epic struct {
	ID           string        `json:"id"`
	JiraID       string        `json:"jira_id"`
	Summary      string        `json:"summary"`
	Description  string        `json:"description"`
	Created      *time.Time    `json:"created"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	Assignee     User          `json:"assignee"`
	Priority     string        `json:"priority"`
	Status       string        `json:"status"`
	Rank         string        `json:"rank"`
	URL          string        `json:"jira_epic_url"`
	IssueDigests []IssueDigest `json:"issue_digests"`
}

type Release struct {
	Version
	ChapterKey   string        `json:"chapter_key"`
	IssueDigests []IssueDigest `json:"issue_digests,omitempty"`
}

type Chapter struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ProjectURL string `json:"jira_project_url"`
	Users      []User `json:"users"`
}

// UserFilter hides users from a chapter listing.
type UserFilter struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type BurnDownBar struct {
	ID               string `json:"id"`
	StartDate        string `json:"start_dt"`
	RemainingWork    int    `json:"remaining_work"`
	NewWork          int    `json:"new_work"`
	UnestimatedCount int    `json:"unestimated_count"`
	PredictedWork    int    `json:"predicted_work"`
	NewKeys          string `json:"new_keys"`
	WorkKeys         string `json:"work_keys"`
	UnestKeys        string `json:"unest_keys"`
	RemainingURL     string `json:"remaining_url,omitempty"`
	NewURL           string `json:"new_url,omitempty"`
	UnestimatedURL   string `json:"unestimated_url,omitempty"`
}

type BurnDown struct {
	ID    string        `json:"id"`
	Scale int           `json:"scale"`
	Bars  []BurnDownBar `json:"bars"`
}

// JobRun is one execution of the weekly snapshot job.
type JobRun struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Epics      []string   `json:"epics"`
	JobResult
}

type JobResult struct {
	EpicsComputed  int    `json:"epics_computed"`
	SnapshotsSaved int    `json:"snapshots_saved"`
	MessagesSent   int    `json:"messages_sent"`
	Success        bool   `json:"success"`
	Error          string `json:"error"`
}

// Snapshot is a burn-down as stored at TakenAt.
type Snapshot struct {
	EpicKey  string    `json:"epic_key"`
	TakenAt  time.Time `json:"taken_at"`
	BurnDown BurnDown  `json:"burndown"`
}
