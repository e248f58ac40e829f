package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/utils"
)

const defaultMaxResults = 50

func (s *Server) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	workspaces, err := client.GetWorkspaces(ctx)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(workspaces)
}

func (s *Server) handleSearchTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, err := request.RequireString("workspace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	params := url.Values{}
	if text := stringArg(args, "text"); text != "" {
		params.Set("text", text)
	}
	if assignee := stringArg(args, "assignee"); assignee != "" {
		params.Set("assignee.any", assignee)
	}
	if projects := stringArg(args, "projects"); projects != "" {
		params.Set("projects.any", projects)
	}
	if completed, ok := boolArg(args, "completed"); ok {
		params.Set("completed", strconv.FormatBool(completed))
	}
	if optFields := stringArg(args, "opt_fields"); optFields != "" {
		params.Set("opt_fields", optFields)
	}

	tasks, err := client.SearchTasks(ctx, workspace, params, intArg(args, "max_results", defaultMaxResults))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(tasks)
}

func (s *Server) handleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	task, err := client.GetTask(ctx, taskID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(task)
}

func (s *Server) handleGetMultipleTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskIDs, err := request.RequireString("task_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	gids := strings.Split(taskIDs, ",")
	for i := range gids {
		gids[i] = strings.TrimSpace(gids[i])
	}

	tasks, err := client.GetMultipleTasks(ctx, gids, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(tasks)
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	projectID := stringArg(args, "project_id")
	workspace := stringArg(args, "workspace")
	if projectID == "" && workspace == "" {
		return mcp.NewToolResultError("either project_id or workspace is required"), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	taskReq := &asana.TaskRequest{Name: utils.Ptr(name)}
	if projectID != "" {
		taskReq.Projects = []string{projectID}
	} else {
		taskReq.Workspace = utils.Ptr(workspace)
	}
	if notes := stringArg(args, "notes"); notes != "" {
		taskReq.Notes = utils.Ptr(notes)
	}
	if htmlNotes := stringArg(args, "html_notes"); htmlNotes != "" {
		taskReq.HTMLNotes = utils.Ptr(htmlNotes)
	}
	if dueOn := stringArg(args, "due_on"); dueOn != "" {
		taskReq.DueOn = utils.Ptr(dueOn)
	}
	if assignee := stringArg(args, "assignee"); assignee != "" {
		taskReq.Assignee = utils.Ptr(assignee)
	}
	if parent := stringArg(args, "parent"); parent != "" {
		taskReq.Parent = utils.Ptr(parent)
	}
	if followers, ok := args["followers"].([]any); ok {
		taskReq.Followers = utils.ToStringSlice(followers)
	}

	task, err := client.CreateTask(ctx, taskReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(task)
}

func (s *Server) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	taskReq := &asana.TaskRequest{}
	if name := stringArg(args, "name"); name != "" {
		taskReq.Name = utils.Ptr(name)
	}
	if notes := stringArg(args, "notes"); notes != "" {
		taskReq.Notes = utils.Ptr(notes)
	}
	if dueOn := stringArg(args, "due_on"); dueOn != "" {
		taskReq.DueOn = utils.Ptr(dueOn)
	}
	if assignee := stringArg(args, "assignee"); assignee != "" {
		taskReq.Assignee = utils.Ptr(assignee)
	}
	if completed, ok := boolArg(args, "completed"); ok {
		taskReq.Completed = utils.Ptr(completed)
	}

	task, err := client.UpdateTask(ctx, taskID, taskReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(task)
}

func (s *Server) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	if err := client.DeleteTask(ctx, taskID); err != nil {
		return errorResult(request, err), nil
	}
	return mcp.NewToolResultText("Task " + taskID + " deleted"), nil
}

func (s *Server) handleGetSubtasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	subtasks, err := client.GetSubtasks(ctx, taskID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(subtasks)
}

func (s *Server) handleCreateSubtask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID, err := request.RequireString("parent_task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	taskReq := &asana.TaskRequest{Name: utils.Ptr(name)}
	if notes := stringArg(args, "notes"); notes != "" {
		taskReq.Notes = utils.Ptr(notes)
	}
	if dueOn := stringArg(args, "due_on"); dueOn != "" {
		taskReq.DueOn = utils.Ptr(dueOn)
	}
	if assignee := stringArg(args, "assignee"); assignee != "" {
		taskReq.Assignee = utils.Ptr(assignee)
	}

	subtask, err := client.CreateSubtask(ctx, parentID, taskReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(subtask)
}

func (s *Server) handleSetParent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID, err := request.RequireString("parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	task, err := client.SetParent(ctx, taskID, parentID,
		stringArg(args, "insert_after"), stringArg(args, "insert_before"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(task)
}

func (s *Server) handleGetTaskStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	stories, err := client.GetTaskStories(ctx, taskID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(stories)
}

func (s *Server) handleCreateTaskStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	story, err := client.CreateTaskStory(ctx, taskID, text)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(story)
}

func (s *Server) handleAddDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := request.GetArguments()["dependencies"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("dependencies is required"), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	if err := client.AddDependencies(ctx, taskID, utils.ToStringSlice(raw)); err != nil {
		return errorResult(request, err), nil
	}
	return mcp.NewToolResultText("Dependencies added to task " + taskID), nil
}

func (s *Server) handleAddDependents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, ok := request.GetArguments()["dependents"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("dependents is required"), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	if err := client.AddDependents(ctx, taskID, utils.ToStringSlice(raw)); err != nil {
		return errorResult(request, err), nil
	}
	return mcp.NewToolResultText("Dependents added to task " + taskID), nil
}

func (s *Server) handleGetTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, err := request.RequireString("workspace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	tags, err := client.GetTags(ctx, workspace, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(tags)
}

func (s *Server) handleGetTasksForTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tagID, err := request.RequireString("tag_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	tasks, err := client.GetTasksForTag(ctx, tagID,
		stringArg(args, "opt_fields"), intArg(args, "max_results", defaultMaxResults))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(tasks)
}
