package tools

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/utils"
)

func (s *Server) handleSearchProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, err := request.RequireString("workspace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	var pattern *regexp.Regexp
	if raw := stringArg(args, "name_pattern"); raw != "" {
		pattern, err = regexp.Compile(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid name_pattern: %v", err)), nil
		}
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	params := url.Values{}
	if archived, ok := boolArg(args, "archived"); ok {
		params.Set("archived", strconv.FormatBool(archived))
	}
	if optFields := stringArg(args, "opt_fields"); optFields != "" {
		params.Set("opt_fields", optFields)
	}

	projects, err := client.SearchProjects(ctx, workspace, params, 0)
	if err != nil {
		return errorResult(request, err), nil
	}

	if pattern != nil {
		filtered := projects[:0]
		for _, p := range projects {
			if pattern.MatchString(p.Name) {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}
	return jsonResult(projects)
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	project, err := client.GetProject(ctx, projectID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(project)
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, err := request.RequireString("workspace")
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
	projectReq := &asana.ProjectRequest{
		Workspace: utils.Ptr(workspace),
		Name:      utils.Ptr(name),
	}
	if team := stringArg(args, "team"); team != "" {
		projectReq.Team = utils.Ptr(team)
	}
	if notes := stringArg(args, "notes"); notes != "" {
		projectReq.Notes = utils.Ptr(notes)
	}
	if color := stringArg(args, "color"); color != "" {
		projectReq.Color = utils.Ptr(color)
	}
	if dueOn := stringArg(args, "due_on"); dueOn != "" {
		projectReq.DueOn = utils.Ptr(dueOn)
	}
	if public, ok := boolArg(args, "public"); ok {
		projectReq.Public = utils.Ptr(public)
	}

	project, err := client.CreateProject(ctx, projectReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(project)
}

func (s *Server) handleUpdateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	args := request.GetArguments()
	projectReq := &asana.ProjectRequest{}
	if name := stringArg(args, "name"); name != "" {
		projectReq.Name = utils.Ptr(name)
	}
	if notes := stringArg(args, "notes"); notes != "" {
		projectReq.Notes = utils.Ptr(notes)
	}
	if color := stringArg(args, "color"); color != "" {
		projectReq.Color = utils.Ptr(color)
	}
	if archived, ok := boolArg(args, "archived"); ok {
		projectReq.Archived = utils.Ptr(archived)
	}

	project, err := client.UpdateProject(ctx, projectID, projectReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(project)
}

func (s *Server) handleDeleteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	if err := client.DeleteProject(ctx, projectID); err != nil {
		return errorResult(request, err), nil
	}
	return mcp.NewToolResultText("Project " + projectID + " deleted"), nil
}

func (s *Server) handleGetProjectTaskCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	counts, err := client.GetProjectTaskCounts(ctx, projectID)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(counts)
}

func (s *Server) handleGetProjectStatuses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	statuses, err := client.GetProjectStatuses(ctx, projectID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(statuses)
}

func (s *Server) handleCreateProjectStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
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

	args := request.GetArguments()
	statusReq := &asana.StatusRequest{Text: utils.Ptr(text)}
	if title := stringArg(args, "title"); title != "" {
		statusReq.Title = utils.Ptr(title)
	}
	if color := stringArg(args, "color"); color != "" {
		statusReq.Color = utils.Ptr(color)
	}

	status, err := client.CreateProjectStatus(ctx, projectID, statusReq)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(status)
}

func (s *Server) handleGetProjectSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	sections, err := client.GetProjectSections(ctx, projectID, stringArg(request.GetArguments(), "opt_fields"))
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(sections)
}

func (s *Server) handleCreateSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := request.RequireString("project_id")
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

	section, err := client.CreateSection(ctx, projectID, name)
	if err != nil {
		return errorResult(request, err), nil
	}
	return jsonResult(section)
}

func (s *Server) handleAddTaskToSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID, err := request.RequireString("section_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := s.clientFor(ctx, request)
	if err != nil {
		return errorResult(request, err), nil
	}

	if err := client.AddTaskToSection(ctx, sectionID, taskID, "", ""); err != nil {
		return errorResult(request, err), nil
	}
	return mcp.NewToolResultText("Task " + taskID + " added to section " + sectionID), nil
}
