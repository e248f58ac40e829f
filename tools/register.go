package tools

import "github.com/mark3labs/mcp-go/mcp"

// identityOptions are the arguments every tool accepts to identify the
// caller. A session_id routes through the session store; a bare user_id (or
// neither) routes through the legacy token cache.
func identityOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("session_id",
			mcp.Description("Session ID bound to the caller's OAuth tokens"),
		),
		mcp.WithString("user_id",
			mcp.Description("Legacy user ID, used when no session_id is given"),
		),
	}
}

func newTool(name string, options ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(options, identityOptions()...)...)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(newTool("asana_list_workspaces",
		mcp.WithDescription("List all workspaces visible to the authenticated user"),
	), s.handleListWorkspaces)

	s.mcpServer.AddTool(newTool("asana_search_tasks",
		mcp.WithDescription("Search tasks in a workspace with full-text and field filters"),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace GID to search in")),
		mcp.WithString("text", mcp.Description("Full-text search query")),
		mcp.WithString("assignee", mcp.Description("Filter by assignee GID")),
		mcp.WithString("projects", mcp.Description("Comma-separated project GIDs to filter by")),
		mcp.WithBoolean("completed", mcp.Description("Filter by completion status")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), s.handleSearchTasks)

	s.mcpServer.AddTool(newTool("asana_get_task",
		mcp.WithDescription("Get a task by its GID"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetTask)

	s.mcpServer.AddTool(newTool("asana_get_multiple_tasks",
		mcp.WithDescription("Get up to 25 tasks by GID in one call"),
		mcp.WithString("task_ids", mcp.Required(), mcp.Description("Comma-separated task GIDs (max 25)")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetMultipleTasks)

	s.mcpServer.AddTool(newTool("asana_create_task",
		mcp.WithDescription("Create a task in a project or workspace"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("project_id", mcp.Description("Project GID to create the task in")),
		mcp.WithString("workspace", mcp.Description("Workspace GID, required when no project is given")),
		mcp.WithString("notes", mcp.Description("Task description")),
		mcp.WithString("html_notes", mcp.Description("Task description as HTML")),
		mcp.WithString("due_on", mcp.Description("Due date, YYYY-MM-DD")),
		mcp.WithString("assignee", mcp.Description("Assignee GID or 'me'")),
		mcp.WithString("parent", mcp.Description("Parent task GID")),
		mcp.WithArray("followers", mcp.Description("User GIDs to add as followers"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleCreateTask)

	s.mcpServer.AddTool(newTool("asana_update_task",
		mcp.WithDescription("Update a task's fields"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("name", mcp.Description("New task name")),
		mcp.WithString("notes", mcp.Description("New task description")),
		mcp.WithString("due_on", mcp.Description("New due date, YYYY-MM-DD")),
		mcp.WithString("assignee", mcp.Description("New assignee GID")),
		mcp.WithBoolean("completed", mcp.Description("Mark the task complete or incomplete")),
	), s.handleUpdateTask)

	s.mcpServer.AddTool(newTool("asana_delete_task",
		mcp.WithDescription("Delete a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
	), s.handleDeleteTask)

	s.mcpServer.AddTool(newTool("asana_get_subtasks",
		mcp.WithDescription("List the subtasks of a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Parent task GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetSubtasks)

	s.mcpServer.AddTool(newTool("asana_create_subtask",
		mcp.WithDescription("Create a subtask under a parent task"),
		mcp.WithString("parent_task_id", mcp.Required(), mcp.Description("Parent task GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Subtask name")),
		mcp.WithString("notes", mcp.Description("Subtask description")),
		mcp.WithString("due_on", mcp.Description("Due date, YYYY-MM-DD")),
		mcp.WithString("assignee", mcp.Description("Assignee GID")),
	), s.handleCreateSubtask)

	s.mcpServer.AddTool(newTool("asana_set_parent_for_task",
		mcp.WithDescription("Change a task's parent, optionally positioning it among its siblings"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("New parent task GID")),
		mcp.WithString("insert_after", mcp.Description("Sibling subtask GID to insert after")),
		mcp.WithString("insert_before", mcp.Description("Sibling subtask GID to insert before")),
	), s.handleSetParent)

	s.mcpServer.AddTool(newTool("asana_get_task_stories",
		mcp.WithDescription("List the comments and activity on a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetTaskStories)

	s.mcpServer.AddTool(newTool("asana_create_task_story",
		mcp.WithDescription("Add a comment to a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	), s.handleCreateTaskStory)

	s.mcpServer.AddTool(newTool("asana_add_task_dependencies",
		mcp.WithDescription("Mark tasks as dependencies of a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithArray("dependencies", mcp.Required(), mcp.Description("Task GIDs the task depends on"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleAddDependencies)

	s.mcpServer.AddTool(newTool("asana_add_task_dependents",
		mcp.WithDescription("Mark tasks as dependents of a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithArray("dependents", mcp.Required(), mcp.Description("Task GIDs that depend on the task"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.handleAddDependents)

	s.mcpServer.AddTool(newTool("asana_search_projects",
		mcp.WithDescription("List the projects of a workspace, optionally filtered by name pattern"),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithString("name_pattern", mcp.Description("Regular expression matched against project names")),
		mcp.WithBoolean("archived", mcp.Description("Include only archived (true) or active (false) projects")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleSearchProjects)

	s.mcpServer.AddTool(newTool("asana_get_project",
		mcp.WithDescription("Get a project by its GID"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetProject)

	s.mcpServer.AddTool(newTool("asana_create_project",
		mcp.WithDescription("Create a project in a workspace"),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("team", mcp.Description("Team GID, required in organizations")),
		mcp.WithString("notes", mcp.Description("Project description")),
		mcp.WithString("color", mcp.Description("Project color")),
		mcp.WithString("due_on", mcp.Description("Due date, YYYY-MM-DD")),
		mcp.WithBoolean("public", mcp.Description("Whether the project is public to the team")),
	), s.handleCreateProject)

	s.mcpServer.AddTool(newTool("asana_update_project",
		mcp.WithDescription("Update a project's fields"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("name", mcp.Description("New project name")),
		mcp.WithString("notes", mcp.Description("New project description")),
		mcp.WithString("color", mcp.Description("New project color")),
		mcp.WithBoolean("archived", mcp.Description("Archive or unarchive the project")),
	), s.handleUpdateProject)

	s.mcpServer.AddTool(newTool("asana_delete_project",
		mcp.WithDescription("Delete a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
	), s.handleDeleteProject)

	s.mcpServer.AddTool(newTool("asana_get_project_task_counts",
		mcp.WithDescription("Get the task counts of a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
	), s.handleGetProjectTaskCounts)

	s.mcpServer.AddTool(newTool("asana_get_project_statuses",
		mcp.WithDescription("List the status updates of a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetProjectStatuses)

	s.mcpServer.AddTool(newTool("asana_create_project_status",
		mcp.WithDescription("Post a status update on a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Status update text")),
		mcp.WithString("title", mcp.Description("Status update title")),
		mcp.WithString("color", mcp.Description("Status color: green, yellow or red")),
	), s.handleCreateProjectStatus)

	s.mcpServer.AddTool(newTool("asana_get_project_sections",
		mcp.WithDescription("List the sections of a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetProjectSections)

	s.mcpServer.AddTool(newTool("asana_create_section",
		mcp.WithDescription("Create a section in a project"),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Section name")),
	), s.handleCreateSection)

	s.mcpServer.AddTool(newTool("asana_add_task_to_section",
		mcp.WithDescription("Move a task into a section"),
		mcp.WithString("section_id", mcp.Required(), mcp.Description("Section GID")),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task GID")),
	), s.handleAddTaskToSection)

	s.mcpServer.AddTool(newTool("asana_get_tags_for_workspace",
		mcp.WithDescription("List the tags of a workspace"),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
	), s.handleGetTags)

	s.mcpServer.AddTool(newTool("asana_get_tasks_for_tag",
		mcp.WithDescription("List the tasks carrying a tag"),
		mcp.WithString("tag_id", mcp.Required(), mcp.Description("Tag GID")),
		mcp.WithString("opt_fields", mcp.Description("Comma-separated fields to include")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), s.handleGetTasksForTag)
}
