// Package main wires and launches the navvy terminal coding agent: one
// task engine over a Gemini provider, the workspace tool set, and the
// Bubble Tea front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/genai"

	"github.com/navvylabs/navvy/internal/config"
	"github.com/navvylabs/navvy/internal/mcp"
	"github.com/navvylabs/navvy/internal/memory"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/process"
	"github.com/navvylabs/navvy/internal/provider"
	"github.com/navvylabs/navvy/internal/provider/gemini"
	"github.com/navvylabs/navvy/internal/session"
	"github.com/navvylabs/navvy/internal/task"
	"github.com/navvylabs/navvy/internal/tool"
	"github.com/navvylabs/navvy/internal/tool/control"
	"github.com/navvylabs/navvy/internal/tool/file"
	"github.com/navvylabs/navvy/internal/tool/memorytool"
	"github.com/navvylabs/navvy/internal/tool/shell"
	"github.com/navvylabs/navvy/internal/tool/web"
	"github.com/navvylabs/navvy/internal/ui"
	"github.com/navvylabs/navvy/internal/workspace"
)

// Session state lives in the launch directory, next to the logs, so a
// project keeps its history between runs.
const (
	historyFile = "history.json"
	memoryFile  = "memory.yaml"
	logDir      = "logs"
	logFile     = "navvy.log"
)

func main() {
	workspaceFlag := flag.String("workspace", ".", "directory the agent works in")
	configFlag := flag.String("config", "", "config file path (default ~/.config/navvy/config.json)")
	freshFlag := flag.Bool("fresh", false, "start a new session instead of resuming history.json")
	flag.Parse()

	cfg := loadConfig(*configFlag)

	log, closeLog, err := createLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()

	if err := run(cfg, *workspaceFlag, *freshFlag, log); err != nil {
		log.Error("session failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration. An explicit -config path must
// load; the default path falls back to defaults with a warning so a
// broken dotfile never blocks startup.
func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		return config.DefaultConfig()
	}
	return cfg
}

// createLogger logs to logs/navvy.log; the terminal belongs to the TUI.
func createLogger() (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(logDir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, f, nil
}

func createProvider(ctx context.Context, cfg *config.Config, log *slog.Logger) (provider.Provider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return gemini.New(gemini.NewRealClient(genaiClient), cfg.Provider.Model, log, gemini.Options{
		Retries: cfg.Provider.MaxRetries,
		Backoff: time.Duration(cfg.Provider.RetryBackoffMs) * time.Millisecond,
	}), nil
}

// registerBuiltins wires the built-in tool set: workspace files, shell
// commands, web access, the knowledge graph, and the control tools the
// engine intercepts.
func registerBuiltins(
	registry *tool.Registry,
	cfg *config.Config,
	resolver *workspace.Resolver,
	ignore *workspace.Ignore,
	super *process.Supervisor,
	workdir string,
	store *memory.Store,
) error {
	fileTools := file.New(resolver, ignore,
		file.WithListLimit(cfg.Tools.MaxListEntries),
		file.WithMatchLimit(cfg.Tools.MaxSearchMatches),
	)
	shellTools := shell.New(super, workdir, shell.Options{
		WaitWindow: time.Duration(cfg.Tools.CommandWaitWindowSeconds) * time.Second,
		Timeout:    time.Duration(cfg.Tools.CommandTimeoutSeconds) * time.Second,
	})
	webTools := web.New(web.SearchConfig{
		Provider: web.SearchProvider(cfg.WebSearch.Provider),
		SearxURL: cfg.WebSearch.SearxURL,
		BraveKey: cfg.WebSearch.BraveAPIKey,
	}, web.Options{})
	memTools := memorytool.New(store)

	var descs []*tool.Descriptor
	descs = append(descs, fileTools.Descriptors()...)
	descs = append(descs, shellTools.Descriptors()...)
	descs = append(descs, webTools.Descriptors()...)
	descs = append(descs, memTools.Descriptors()...)
	descs = append(descs, control.Descriptors()...)
	return registry.RegisterAll(descs...)
}

// mcpServerConfigs maps the config entries onto host server configs.
func mcpServerConfigs(entries []config.MCPServerConfig) []mcp.ServerConfig {
	configs := make([]mcp.ServerConfig, 0, len(entries))
	for _, e := range entries {
		configs = append(configs, mcp.ServerConfig{
			Name:      e.Name,
			Transport: mcp.TransportType(e.Transport),
			Command:   e.Command,
			Args:      e.Args,
			URL:       e.URL,
		})
	}
	return configs
}

func run(cfg *config.Config, workspaceDir string, fresh bool, log *slog.Logger) error {
	mode, err := permission.ParseMode(cfg.PermissionMode)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	root, err := workspace.CanonicaliseRoot(workspaceDir)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	resolver := workspace.NewResolver(root)
	locks := workspace.NewLockSet()
	ignore, err := workspace.LoadIgnore(root)
	if err != nil {
		return fmt.Errorf("load gitignore: %w", err)
	}

	super := process.NewSupervisor(log, process.Options{
		MaxOutputBytes: int(cfg.Tools.MaxCommandOutputBytes),
		GraceTimeout:   time.Duration(cfg.Tools.ProcessGraceSeconds) * time.Second,
	})

	store, err := memory.Open(memoryFile)
	if err != nil {
		// A corrupt graph should not block startup; work without recall.
		log.Warn("memory store unavailable", "path", memoryFile, "error", err)
		store = memory.InMemory()
	}

	registry := tool.NewRegistry()
	if err := registerBuiltins(registry, cfg, resolver, ignore, super, root, store); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	if len(cfg.MCP) > 0 {
		host := mcp.NewHost(log, mcp.Options{})
		host.Connect(startCtx, mcpServerConfigs(cfg.MCP))
		if err := registry.RegisterAll(host.Descriptors()...); err != nil {
			return fmt.Errorf("register mcp tools: %w", err)
		}
	}

	p, err := createProvider(startCtx, cfg, log)
	if err != nil {
		return err
	}

	dispatcher := tool.NewDispatcher(registry, resolver, locks, log)
	gate := permission.NewGate(mode)
	env := task.NewEnvironment(resolver, ignore, store, task.EnvironmentOptions{
		CensusLimit: cfg.Task.EnvFileLimit,
		RecallLimit: cfg.Task.EnvMemoryRecall,
	})
	sessions := session.NewFileStore(historyFile)

	engine := task.New(p, dispatcher, gate, log, task.Options{
		Procs:    super,
		Store:    sessions,
		Env:      env,
		System:   task.SystemPrompt(root, cfg.UserInstructions),
		MaxSteps: cfg.Task.MaxSteps,
		Grace:    time.Duration(cfg.Task.CancelGraceSeconds) * time.Second,
	})

	if !fresh {
		turns, err := sessions.Load()
		if err != nil {
			log.Warn("history not loaded", "path", historyFile, "error", err)
		} else if len(turns) > 0 {
			if err := engine.LoadHistory(turns); err != nil {
				log.Warn("history not restored", "error", err)
			} else {
				log.Info("session resumed", "turns", len(turns))
			}
		}
	}

	log.Info("session start", "workspace", root, "model", cfg.Provider.Model, "mode", mode)

	front := ui.New(engine, super, ui.Options{
		ModelName: cfg.Provider.Model,
		Mode:      cfg.PermissionMode,
	})
	uiErr := front.Run()

	// The UI is gone; stop the task and reap workspace processes.
	_ = engine.Cancel()
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	if err := super.Shutdown(stopCtx); err != nil {
		log.Warn("processes not reaped", "error", err)
	}

	return uiErr
}
