package asana

// Ref is the compact representation Asana uses when a resource is embedded
// inside another resource.
type Ref struct {
	GID          string `json:"gid"`
	Name         string `json:"name,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
}

// User is an Asana user record.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Workspace is an Asana workspace or organization.
type Workspace struct {
	GID            string `json:"gid"`
	Name           string `json:"name,omitempty"`
	ResourceType   string `json:"resource_type,omitempty"`
	IsOrganization bool   `json:"is_organization,omitempty"`
}

// Task is an Asana task record. Only the fields the tools surface are
// modeled; unrecognized fields are dropped on decode.
type Task struct {
	GID             string   `json:"gid"`
	Name            string   `json:"name,omitempty"`
	ResourceType    string   `json:"resource_type,omitempty"`
	ResourceSubtype string   `json:"resource_subtype,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	HTMLNotes       string   `json:"html_notes,omitempty"`
	Completed       bool     `json:"completed"`
	CompletedAt     string   `json:"completed_at,omitempty"`
	DueOn           string   `json:"due_on,omitempty"`
	DueAt           string   `json:"due_at,omitempty"`
	StartOn         string   `json:"start_on,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	ModifiedAt      string   `json:"modified_at,omitempty"`
	PermalinkURL    string   `json:"permalink_url,omitempty"`
	Assignee        *User    `json:"assignee,omitempty"`
	Parent          *Ref     `json:"parent,omitempty"`
	Workspace       *Ref     `json:"workspace,omitempty"`
	Projects        []Ref    `json:"projects,omitempty"`
	Tags            []Ref    `json:"tags,omitempty"`
	Followers       []User   `json:"followers,omitempty"`
	Memberships     []Member `json:"memberships,omitempty"`
	NumSubtasks     int      `json:"num_subtasks,omitempty"`
	CustomFields    []Field  `json:"custom_fields,omitempty"`
}

// Member links a task to a project and section.
type Member struct {
	Project *Ref `json:"project,omitempty"`
	Section *Ref `json:"section,omitempty"`
}

// Field is a custom field value attached to a task.
type Field struct {
	GID          string `json:"gid"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	DisplayValue string `json:"display_value,omitempty"`
}

// Project is an Asana project record.
type Project struct {
	GID          string `json:"gid"`
	Name         string `json:"name,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Color        string `json:"color,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	Public       bool   `json:"public,omitempty"`
	DueOn        string `json:"due_on,omitempty"`
	StartOn      string `json:"start_on,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	ModifiedAt   string `json:"modified_at,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	Owner        *User  `json:"owner,omitempty"`
	Team         *Ref   `json:"team,omitempty"`
	Workspace    *Ref   `json:"workspace,omitempty"`
}

// Section is a section within a project.
type Section struct {
	GID          string `json:"gid"`
	Name         string `json:"name,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	Project      *Ref   `json:"project,omitempty"`
}

// Story is a comment or system event on a task.
type Story struct {
	GID             string `json:"gid"`
	ResourceType    string `json:"resource_type,omitempty"`
	ResourceSubtype string `json:"resource_subtype,omitempty"`
	Text            string `json:"text,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	CreatedBy       *User  `json:"created_by,omitempty"`
}

// Tag is an Asana tag record.
type Tag struct {
	GID          string `json:"gid"`
	Name         string `json:"name,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	Color        string `json:"color,omitempty"`
	Workspace    *Ref   `json:"workspace,omitempty"`
}

// ProjectStatus is a project status update.
type ProjectStatus struct {
	GID       string `json:"gid"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text,omitempty"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	CreatedBy *User  `json:"created_by,omitempty"`
}

// TaskCounts summarizes the tasks in a project.
type TaskCounts struct {
	NumTasks           int `json:"num_tasks"`
	NumIncompleteTasks int `json:"num_incomplete_tasks"`
	NumCompletedTasks  int `json:"num_completed_tasks"`
	NumMilestones      int `json:"num_milestones"`
}

// TaskRequest carries the writable fields for task create and update calls.
// Pointer fields are omitted from the request body when nil.
type TaskRequest struct {
	Name      *string  `json:"name,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	HTMLNotes *string  `json:"html_notes,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
	DueOn     *string  `json:"due_on,omitempty"`
	DueAt     *string  `json:"due_at,omitempty"`
	StartOn   *string  `json:"start_on,omitempty"`
	Assignee  *string  `json:"assignee,omitempty"`
	Parent    *string  `json:"parent,omitempty"`
	Workspace *string  `json:"workspace,omitempty"`
	Projects  []string `json:"projects,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Followers []string `json:"followers,omitempty"`
}

// ProjectRequest carries the writable fields for project create and update
// calls.
type ProjectRequest struct {
	Name      *string `json:"name,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	Color     *string `json:"color,omitempty"`
	Archived  *bool   `json:"archived,omitempty"`
	Public    *bool   `json:"public,omitempty"`
	DueOn     *string `json:"due_on,omitempty"`
	StartOn   *string `json:"start_on,omitempty"`
	Team      *string `json:"team,omitempty"`
	Workspace *string `json:"workspace,omitempty"`
}

// StatusRequest carries the fields for creating a project status update.
type StatusRequest struct {
	Title *string `json:"title,omitempty"`
	Text  *string `json:"text,omitempty"`
	Color *string `json:"color,omitempty"`
}
