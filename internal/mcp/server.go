package mcp

import (
	"context"
	"fmt"
	"log"

	"github.com/formintake/formintake/internal/config"
	"github.com/formintake/formintake/internal/descriptions"
	"github.com/formintake/formintake/internal/intake"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *intake.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *intake.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register form extract fields tool
	extractFieldsTool := mcp.NewTool(
		"form_extract_fields",
		mcp.WithDescription(descriptions.GetToolDescription("form_extract_fields")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form document"),
		),
		mcp.WithBoolean("include_trace",
			mcp.Description("Include the extraction decision trace in the output"),
		),
	)
	s.mcpServer.AddTool(extractFieldsTool, s.handleFormExtractFields)

	// Register form detect type tool
	detectTypeTool := mcp.NewTool(
		"form_detect_type",
		mcp.WithDescription(descriptions.GetToolDescription("form_detect_type")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form document"),
		),
	)
	s.mcpServer.AddTool(detectTypeTool, s.handleFormDetectType)

	// Register form validate file tool
	validateFileTool := mcp.NewTool(
		"form_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("form_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the form document"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleFormValidateFile)

	// Register form intake directory tool
	intakeDirectoryTool := mcp.NewTool(
		"form_intake_directory",
		mcp.WithDescription(descriptions.GetToolDescription("form_intake_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory path to scan (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	)
	s.mcpServer.AddTool(intakeDirectoryTool, s.handleFormIntakeDirectory)

	// Register form server info tool
	serverInfoTool := mcp.NewTool(
		"form_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("form_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleFormServerInfo)
}

// Handler functions
func (s *Server) handleFormExtractFields(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	includeTrace := false
	if v, ok := request.GetArguments()["include_trace"].(bool); ok {
		includeTrace = v
	}

	req := intake.ExtractFileRequest{Path: path, IncludeTrace: includeTrace}
	result, err := s.service.ExtractFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatExtractFieldsResult(result, includeTrace)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormDetectType(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := intake.DetectTypeRequest{Path: path}
	result, err := s.service.DetectType(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Detected form type for %s\n", result.Path)
	responseText += fmt.Sprintf("Form Type: %s\n", result.FormType)
	responseText += fmt.Sprintf("Title: %s\n", result.FormTitle)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormValidateFile(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := intake.ValidateFileRequest{Path: path}
	result, err := s.service.ValidateFile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Document %s is valid and readable", result.Path)
		if result.Pages > 0 {
			responseText += fmt.Sprintf("\nPages: %d", result.Pages)
		}
		if result.PDFVersion != "" {
			responseText += fmt.Sprintf("\nPDF Version: %s", result.PDFVersion)
		}
		if result.Encrypted {
			responseText += "\nEncrypted: true"
		}
	} else {
		responseText = fmt.Sprintf("Validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormIntakeDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.IntakeDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	req := intake.ScanDirectoryRequest{
		Directory: directory,
		Query:     query,
	}

	result, err := s.service.ScanDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No supported documents found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatScanDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFormServerInfo(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	result, err := s.service.ServerInfo(s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := s.formatServerInfoResult(result)
	return mcp.NewToolResultText(responseText), nil
}

// Formatting methods
func (s *Server) formatExtractFieldsResult(result *intake.ExtractFileResult, includeTrace bool) string {
	text := fmt.Sprintf("Successfully extracted fields from: %s\n", result.Path)
	text += fmt.Sprintf("Format: %s\n", result.Format)
	if result.Pages > 0 {
		text += fmt.Sprintf("Pages: %d\n", result.Pages)
	}
	if result.CacheHit {
		text += "Served from cache\n"
	}

	r := result.Result
	text += fmt.Sprintf("Form Type: %s (%s)\n", r.FormType, r.FormType.DisplayName())
	text += fmt.Sprintf("Fields: %d total, %d parents\n", r.FieldCount(), r.ParentCount())

	if len(r.Parts) > 0 {
		text += "\nParts:\n"
		for _, part := range r.Parts {
			text += fmt.Sprintf("  Part %s. %s\n", part.Number, part.Title)
		}
	}

	if len(r.Fields) > 0 {
		text += "\nFields:\n"
		for i := range r.Fields {
			f := &r.Fields[i]
			switch {
			case f.IsParent:
				text += fmt.Sprintf("  %s. %s\n", f.ItemNumber, f.Label)
			case f.IsSubfield:
				text += fmt.Sprintf("    %s %s (%s)\n", f.ItemNumber, f.Label, f.FieldType)
			default:
				text += fmt.Sprintf("  %s. %s (%s)\n", f.ItemNumber, f.Label, f.FieldType)
			}
		}
	} else {
		text += "\nNo numbered fields were found in the document text.\n"
	}

	if includeTrace && len(r.Trace) > 0 {
		text += "\nTrace:\n"
		for _, line := range r.Trace {
			text += fmt.Sprintf("  %s\n", line)
		}
	}

	return text
}

func (s *Server) formatScanDirectoryResult(result *intake.ScanDirectoryResult) string {
	text := fmt.Sprintf("Found %d supported document(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatServerInfoResult(result *intake.ServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Intake Directory: %s\n", result.IntakeDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", result.MaxFileSize/(1024*1024))

	// Directory contents
	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d documents found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No supported documents found in intake directory\n\n"
	}

	// Known forms
	text += "🗂️  Known Forms:\n"
	for _, form := range result.KnownForms {
		text += fmt.Sprintf("  • %s\n", form)
	}
	text += "\n"

	// Available tools
	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	// Supported extensions
	if len(result.SupportedExtensions) > 0 {
		text += "\n📄 Supported Extensions:\n"
		for _, ext := range result.SupportedExtensions {
			text += fmt.Sprintf("  • %s\n", ext)
		}
	}

	// Usage guidance
	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server on standard I/O
func (s *Server) Run(ctx context.Context) error {
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting form intake MCP server in stdio mode")
		log.Printf("Intake directory: %s", s.config.IntakeDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
