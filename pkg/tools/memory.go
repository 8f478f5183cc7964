package tools

// This file wires the memory CRUD tools onto an MCP server. Tool builders
// only describe the schema; the execution logic lives in handler closures
// over the file-backed store, so tests can point them at a temp directory.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/phaezer/mcp-local-project-memory/pkg/memory"
)

// RegisterMemoryTools attaches all memory tools to the supplied MCP server
// instance, backed by the given store.
func RegisterMemoryTools(srv *server.MCPServer, store *memory.Store) {
	srv.AddTool(buildStoreMemoryTool(), makeStoreMemoryHandler(store))
	srv.AddTool(buildRetrieveMemoryTool(), makeRetrieveMemoryHandler(store))
	srv.AddTool(buildListMemoriesTool(), makeListMemoriesHandler(store))
	srv.AddTool(buildSearchMemoriesTool(), makeSearchMemoriesHandler(store))
	srv.AddTool(buildUpdateMemoryTool(), makeUpdateMemoryHandler(store))
	srv.AddTool(buildDeleteMemoryTool(), makeDeleteMemoryHandler(store))
	srv.AddTool(buildGetMemoryInstructionsTool(), makeGetMemoryInstructionsHandler(store))
}

// ---------------------------------------------------------------------------
// Tool builders (schema only – no execution logic)
// ---------------------------------------------------------------------------

func buildStoreMemoryTool() mcp.Tool {
	return mcp.NewTool(
		"store_memory",
		mcp.WithDescription("Stores a new memory as a markdown file with frontmatter metadata and returns the written path."),
		mcp.WithString("title",
			mcp.Description("Title/name for the memory (used as filename)"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("Content to store in the memory"),
			mcp.Required(),
		),
		mcp.WithString("tags",
			mcp.Description("Optional comma-separated tags for categorization"),
		),
	)
}

func buildRetrieveMemoryTool() mcp.Tool {
	return mcp.NewTool(
		"retrieve_memory",
		mcp.WithDescription("Retrieves the full content of a memory by filename."),
		mcp.WithString("filename",
			mcp.Description("Filename of the memory to retrieve"),
			mcp.Required(),
		),
	)
}

func buildListMemoriesTool() mcp.Tool {
	return mcp.NewTool(
		"list_memories",
		mcp.WithDescription("Lists all stored memories in creation order, optionally filtered by a tag substring."),
		mcp.WithString("tag_filter",
			mcp.Description("Optional tag to filter memories by (case-insensitive substring of the tags text)"),
		),
	)
}

func buildSearchMemoriesTool() mcp.Tool {
	return mcp.NewTool(
		"search_memories",
		mcp.WithDescription("Searches all memories for a query string (case-insensitive substring match over the full file content)."),
		mcp.WithString("query",
			mcp.Description("Search query to find in memory contents"),
			mcp.Required(),
		),
	)
}

func buildUpdateMemoryTool() mcp.Tool {
	return mcp.NewTool(
		"update_memory",
		mcp.WithDescription("Replaces the body of an existing memory while preserving its frontmatter metadata."),
		mcp.WithString("filename",
			mcp.Description("Filename of the memory to update"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("New content for the memory"),
			mcp.Required(),
		),
	)
}

func buildDeleteMemoryTool() mcp.Tool {
	return mcp.NewTool(
		"delete_memory",
		mcp.WithDescription("Deletes a memory file."),
		mcp.WithString("filename",
			mcp.Description("Filename of the memory to delete"),
			mcp.Required(),
		),
	)
}

func buildGetMemoryInstructionsTool() mcp.Tool {
	return mcp.NewTool(
		"get_memory_instructions",
		mcp.WithDescription("Returns instructions on how to interact with the memory system, creating the default document on first access."),
	)
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

// jsonResult marshals an operation result into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return mcp.NewToolResultText(string(b)), nil
}

func makeStoreMemoryHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		title, _ := args["title"].(string)
		if title == "" {
			return nil, fmt.Errorf("title parameter is required")
		}

		content, _ := args["content"].(string)
		tags, _ := args["tags"].(string)

		result, err := store.Store(title, content, tags)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeRetrieveMemoryHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename, _ := req.GetArguments()["filename"].(string)
		if filename == "" {
			return nil, fmt.Errorf("filename parameter is required")
		}

		result, err := store.Retrieve(filename)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeListMemoriesHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tagFilter, _ := req.GetArguments()["tag_filter"].(string)

		result, err := store.List(tagFilter)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeSearchMemoriesHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)
		if query == "" {
			return nil, fmt.Errorf("query parameter is required")
		}

		result, err := store.Search(query)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeUpdateMemoryHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		filename, _ := args["filename"].(string)
		if filename == "" {
			return nil, fmt.Errorf("filename parameter is required")
		}

		content, _ := args["content"].(string)

		result, err := store.Update(filename, content)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeDeleteMemoryHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filename, _ := req.GetArguments()["filename"].(string)
		if filename == "" {
			return nil, fmt.Errorf("filename parameter is required")
		}

		result, err := store.Delete(filename)
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}

func makeGetMemoryInstructionsHandler(store *memory.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := store.Instructions()
		if err != nil {
			return nil, err
		}

		return jsonResult(result)
	}
}
