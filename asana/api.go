package asana

import (
	"context"
	"net/url"
	"strings"
)

// maxBatchTasks is the most GIDs a single multi-task lookup accepts.
const maxBatchTasks = 25

// optFieldsQuery builds a query carrying opt_fields when one is given.
func optFieldsQuery(optFields string) url.Values {
	query := url.Values{}
	if optFields != "" {
		query.Set("opt_fields", optFields)
	}
	return query
}

// GetWorkspaces lists the workspaces visible to the authenticated user.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.get(ctx, "/workspaces", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWorkspace fetches a single workspace.
func (c *Client) GetWorkspace(ctx context.Context, workspaceGID, optFields string) (*Workspace, error) {
	var out Workspace
	if err := c.get(ctx, "/workspaces/"+workspaceGID, optFieldsQuery(optFields), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchTasks runs a workspace task search with the given (already encoded)
// search parameters, following pagination up to maxResults.
func (c *Client) SearchTasks(ctx context.Context, workspaceGID string, params url.Values, maxResults int) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/workspaces/"+workspaceGID+"/tasks/search", params, maxResults)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, taskGID, optFields string) (*Task, error) {
	var out Task
	if err := c.get(ctx, "/tasks/"+taskGID, optFieldsQuery(optFields), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMultipleTasks fetches up to 25 tasks by GID in one call.
func (c *Client) GetMultipleTasks(ctx context.Context, taskGIDs []string, optFields string) ([]Task, error) {
	if len(taskGIDs) > maxBatchTasks {
		taskGIDs = taskGIDs[:maxBatchTasks]
	}
	query := optFieldsQuery(optFields)
	query.Set("task", strings.Join(taskGIDs, ","))

	var out []Task
	if err := c.get(ctx, "/tasks", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req *TaskRequest) (*Task, error) {
	var out Task
	if err := c.post(ctx, "/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, taskGID string, req *TaskRequest) (*Task, error) {
	var out Task
	if err := c.put(ctx, "/tasks/"+taskGID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskGID string) error {
	return c.delete(ctx, "/tasks/"+taskGID)
}

// GetSubtasks lists the subtasks of a task.
func (c *Client) GetSubtasks(ctx context.Context, taskGID, optFields string) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/tasks/"+taskGID+"/subtasks", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// CreateSubtask creates a task under a parent task.
func (c *Client) CreateSubtask(ctx context.Context, parentGID string, req *TaskRequest) (*Task, error) {
	var out Task
	if err := c.post(ctx, "/tasks/"+parentGID+"/subtasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetParent reparents a task, optionally positioning it among its siblings.
func (c *Client) SetParent(ctx context.Context, taskGID, parentGID, insertAfter, insertBefore string) (*Task, error) {
	body := map[string]string{"parent": parentGID}
	if insertAfter != "" {
		body["insert_after"] = insertAfter
	}
	if insertBefore != "" {
		body["insert_before"] = insertBefore
	}

	var out Task
	if err := c.post(ctx, "/tasks/"+taskGID+"/setParent", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DuplicateTask duplicates a task. include is a comma separated list of
// fields to carry over.
func (c *Client) DuplicateTask(ctx context.Context, taskGID, name, include string) (*Task, error) {
	body := map[string]string{"name": name}
	if include != "" {
		body["include"] = include
	}

	var out Task
	if err := c.post(ctx, "/tasks/"+taskGID+"/duplicate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskStories lists the stories (comments and activity) on a task.
func (c *Client) GetTaskStories(ctx context.Context, taskGID, optFields string) ([]Story, error) {
	pages, err := c.getPaginated(ctx, "/tasks/"+taskGID+"/stories", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Story](pages)
}

// CreateTaskStory adds a comment to a task.
func (c *Client) CreateTaskStory(ctx context.Context, taskGID, text string) (*Story, error) {
	var out Story
	if err := c.post(ctx, "/tasks/"+taskGID+"/stories", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskDependencies lists the tasks a task depends on.
func (c *Client) GetTaskDependencies(ctx context.Context, taskGID, optFields string) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/tasks/"+taskGID+"/dependencies", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// GetTaskDependents lists the tasks that depend on a task.
func (c *Client) GetTaskDependents(ctx context.Context, taskGID, optFields string) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/tasks/"+taskGID+"/dependents", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// AddDependencies marks the given tasks as dependencies of a task.
func (c *Client) AddDependencies(ctx context.Context, taskGID string, dependencyGIDs []string) error {
	return c.post(ctx, "/tasks/"+taskGID+"/addDependencies", map[string][]string{"dependencies": dependencyGIDs}, nil)
}

// AddDependents marks the given tasks as dependents of a task.
func (c *Client) AddDependents(ctx context.Context, taskGID string, dependentGIDs []string) error {
	return c.post(ctx, "/tasks/"+taskGID+"/addDependents", map[string][]string{"dependents": dependentGIDs}, nil)
}

// AddProjectToTask adds a task to a project, optionally into a section or at
// a position.
func (c *Client) AddProjectToTask(ctx context.Context, taskGID, projectGID, section, insertAfter, insertBefore string) error {
	body := map[string]string{"project": projectGID}
	if section != "" {
		body["section"] = section
	}
	if insertAfter != "" {
		body["insert_after"] = insertAfter
	}
	if insertBefore != "" {
		body["insert_before"] = insertBefore
	}
	return c.post(ctx, "/tasks/"+taskGID+"/addProject", body, nil)
}

// RemoveProjectFromTask removes a task from a project.
func (c *Client) RemoveProjectFromTask(ctx context.Context, taskGID, projectGID string) error {
	return c.post(ctx, "/tasks/"+taskGID+"/removeProject", map[string]string{"project": projectGID}, nil)
}

// AddTagToTask attaches a tag to a task.
func (c *Client) AddTagToTask(ctx context.Context, taskGID, tagGID string) error {
	return c.post(ctx, "/tasks/"+taskGID+"/addTag", map[string]string{"tag": tagGID}, nil)
}

// RemoveTagFromTask detaches a tag from a task.
func (c *Client) RemoveTagFromTask(ctx context.Context, taskGID, tagGID string) error {
	return c.post(ctx, "/tasks/"+taskGID+"/removeTag", map[string]string{"tag": tagGID}, nil)
}

// SearchProjects lists the projects of a workspace, following pagination.
func (c *Client) SearchProjects(ctx context.Context, workspaceGID string, params url.Values, maxResults int) ([]Project, error) {
	pages, err := c.getPaginated(ctx, "/workspaces/"+workspaceGID+"/projects", params, maxResults)
	if err != nil {
		return nil, err
	}
	return decodePages[Project](pages)
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, projectGID, optFields string) (*Project, error) {
	var out Project
	if err := c.get(ctx, "/projects/"+projectGID, optFieldsQuery(optFields), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req *ProjectRequest) (*Project, error) {
	var out Project
	if err := c.post(ctx, "/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, projectGID string, req *ProjectRequest) (*Project, error) {
	var out Project
	if err := c.put(ctx, "/projects/"+projectGID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, projectGID string) error {
	return c.delete(ctx, "/projects/"+projectGID)
}

// GetProjectTaskCounts fetches a project's task counts.
func (c *Client) GetProjectTaskCounts(ctx context.Context, projectGID string) (*TaskCounts, error) {
	query := url.Values{}
	query.Set("opt_fields", "num_tasks,num_incomplete_tasks,num_completed_tasks,num_milestones")

	var out TaskCounts
	if err := c.get(ctx, "/projects/"+projectGID+"/task_counts", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProjectSections lists the sections of a project.
func (c *Client) GetProjectSections(ctx context.Context, projectGID, optFields string) ([]Section, error) {
	pages, err := c.getPaginated(ctx, "/projects/"+projectGID+"/sections", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Section](pages)
}

// CreateSection creates a section in a project.
func (c *Client) CreateSection(ctx context.Context, projectGID, name string) (*Section, error) {
	var out Section
	if err := c.post(ctx, "/projects/"+projectGID+"/sections", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddTaskToSection moves a task into a section.
func (c *Client) AddTaskToSection(ctx context.Context, sectionGID, taskGID, insertAfter, insertBefore string) error {
	body := map[string]string{"task": taskGID}
	if insertAfter != "" {
		body["insert_after"] = insertAfter
	}
	if insertBefore != "" {
		body["insert_before"] = insertBefore
	}
	return c.post(ctx, "/sections/"+sectionGID+"/addTask", body, nil)
}

// GetTasksFromProject lists the tasks of a project.
func (c *Client) GetTasksFromProject(ctx context.Context, projectGID, optFields string, maxResults int) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/projects/"+projectGID+"/tasks", optFieldsQuery(optFields), maxResults)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// GetTasksFromSection lists the tasks of a section.
func (c *Client) GetTasksFromSection(ctx context.Context, sectionGID, optFields string, maxResults int) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/sections/"+sectionGID+"/tasks", optFieldsQuery(optFields), maxResults)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}

// GetProjectStatuses lists the status updates of a project.
func (c *Client) GetProjectStatuses(ctx context.Context, projectGID, optFields string) ([]ProjectStatus, error) {
	pages, err := c.getPaginated(ctx, "/projects/"+projectGID+"/project_statuses", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[ProjectStatus](pages)
}

// CreateProjectStatus posts a status update on a project.
func (c *Client) CreateProjectStatus(ctx context.Context, projectGID string, req *StatusRequest) (*ProjectStatus, error) {
	var out ProjectStatus
	if err := c.post(ctx, "/projects/"+projectGID+"/project_statuses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTags lists the tags of a workspace.
func (c *Client) GetTags(ctx context.Context, workspaceGID, optFields string) ([]Tag, error) {
	pages, err := c.getPaginated(ctx, "/workspaces/"+workspaceGID+"/tags", optFieldsQuery(optFields), 0)
	if err != nil {
		return nil, err
	}
	return decodePages[Tag](pages)
}

// GetTasksForTag lists the tasks carrying a tag.
func (c *Client) GetTasksForTag(ctx context.Context, tagGID, optFields string, maxResults int) ([]Task, error) {
	pages, err := c.getPaginated(ctx, "/tags/"+tagGID+"/tasks", optFieldsQuery(optFields), maxResults)
	if err != nil {
		return nil, err
	}
	return decodePages[Task](pages)
}
