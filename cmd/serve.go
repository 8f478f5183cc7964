package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phaezer/mcp-local-project-memory/pkg/memory"
	"github.com/phaezer/mcp-local-project-memory/pkg/tools"
)

var (
	portFlag int
	hostFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the memory MCP server",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	stdioCmd = &cobra.Command{
		Use:   "stdio",
		Short: "Serve the memory tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newMemoryServer()
			if err != nil {
				return err
			}

			return server.ServeStdio(srv)
		},
	}

	sseCmd = &cobra.Command{
		Use:   "sse",
		Short: "Serve the memory tools over SSE",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newMemoryServer()
			if err != nil {
				return err
			}

			sseSrv := server.NewSSEServer(srv)
			addr := fmt.Sprintf("%s:%d", hostFlag, portFlag)

			if err := sseSrv.Start(addr); err != nil {
				log.Error("failed to start sse server", "error", err)
				return err
			}

			return nil
		},
	}
)

// newMemoryServer builds the MCP server with the memory tools registered and
// the storage directories ensured, so every tool starts from a valid tree.
func newMemoryServer() (*server.MCPServer, error) {
	config := memory.NewConfig(viper.GetString("memory.project_root"))

	if err := config.EnsureDirectories(); err != nil {
		log.Error("failed to prepare storage directories", "root", config.ProjectRoot, "error", err)
		return nil, err
	}

	srv := server.NewMCPServer(
		viper.GetString("server.name"),
		viper.GetString("server.version"),
		server.WithLogging(),
		server.WithToolCapabilities(true),
	)

	tools.RegisterMemoryTools(srv, memory.NewStore(config))

	return srv, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(stdioCmd)
	serveCmd.AddCommand(sseCmd)

	sseCmd.Flags().IntVarP(&portFlag, "port", "p", 3210, "Port to serve on")
	sseCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
}

var longServe = `
Serve the project memory tools over MCP.

Examples:
  # Serve over stdio for a local agent
  mcp-local-project-memory serve stdio --project-root /path/to/project

  # Serve over SSE on port 3210
  mcp-local-project-memory serve sse --port 3210
`
