package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/novaflow/sciskills/pkg/logger"
	"github.com/novaflow/sciskills/pkg/presenter"
	"github.com/novaflow/sciskills/pkg/server"
	"github.com/novaflow/sciskills/pkg/skills"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host                   string
	Port                   int
	SkillsDir              string
	Watch                  bool
	SynthesizeDescriptions bool
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:      "localhost",
		Port:      8080,
		SkillsDir: "./scientific-skills",
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP HTTP server",
	Long: `Start the HTTP server that exposes the skill catalog over the MCP
protocol. The server answers POST /mcp with the protocol envelope and
GET /health with the catalog size.

The server will be available at http://localhost:8080 by default.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the server to")
	serveCmd.Flags().String("skills-dir", defaults.SkillsDir, "Directory containing skill subdirectories")
	serveCmd.Flags().Bool("watch", defaults.Watch, "Reload the catalog when the skills directory changes")
	serveCmd.Flags().Bool("synthesize-descriptions", defaults.SynthesizeDescriptions,
		"Advertise 'Scientific skill: <name>' for skills without a description")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("skills.dir", serveCmd.Flags().Lookup("skills-dir"))
	viper.BindPFlag("skills.watch", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("skills.synthesize_descriptions", serveCmd.Flags().Lookup("synthesize-descriptions"))
}

// getServeConfigFromFlags extracts serve configuration from flags and config
func getServeConfigFromFlags(_ *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host := viper.GetString("server.host"); host != "" {
		config.Host = host
	}
	if port := viper.GetInt("server.port"); port != 0 {
		config.Port = port
	}
	if dir := viper.GetString("skills.dir"); dir != "" {
		config.SkillsDir = dir
	}
	config.Watch = viper.GetBool("skills.watch")
	config.SynthesizeDescriptions = viper.GetBool("skills.synthesize_descriptions")

	return config
}

// runServeCommand starts the MCP server and blocks until interrupted
func runServeCommand(ctx context.Context, config *ServeConfig) {
	logger.G(ctx).WithFields(map[string]any{
		"host":       config.Host,
		"port":       config.Port,
		"skills_dir": config.SkillsDir,
	}).Info("Starting MCP skill server")

	var opts []skills.Option
	if config.SynthesizeDescriptions {
		opts = append(opts, skills.WithSynthesizedDescriptions())
	}
	registry := skills.NewRegistry(config.SkillsDir, opts...)

	srv, err := server.New(&server.Config{Host: config.Host, Port: config.Port}, registry)
	if err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if config.Watch {
		go func() {
			if err := registry.Watch(ctx); err != nil {
				logger.G(ctx).WithError(err).Error("skills directory watcher failed")
			}
		}()
	}

	presenter.Success(fmt.Sprintf("MCP server starting on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := srv.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("MCP server error")
		presenter.Error(err, "MCP server failed")
		os.Exit(1)
	}

	presenter.Info("Server stopped")
}
