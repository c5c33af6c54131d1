package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcptape/mcptape/pkg/capture"
	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/trace"
)

var (
	recordEnv   []string
	recordCalls []string
	skipLists   bool
)

var recordCmd = &cobra.Command{
	Use:   "record -- <command> [args...]",
	Short: "Record a session against a real MCP server",
	Long: `Spawn a real MCP server, drive a discovery conversation through the
capture proxy, and append the sealed session to the trace file.

The conversation initializes the server, lists its tools, resources, and
prompts, then performs any tool calls given with --call. Failures of
individual operations are recorded like any other outcome; they do not abort
the recording.

Examples:
  mcptape record -- python calculator_server.py
  mcptape record --call 'add={"a":2,"b":3}' -- node server.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		command, commandArgs := args[0], args[1:]
		env := append(cfg.Server.Env, recordEnv...)

		transport := mcp.NewStdioTransport(command, commandArgs, env)
		if err := transport.Start(); err != nil {
			return fmt.Errorf("spawn server: %w", err)
		}
		defer transport.Close()

		client := mcp.NewClient(transport)

		recorder := capture.NewRecorder()
		recorder.SetLogger(log)
		if cfg.Capture.GracePeriod > 0 {
			recorder.SetGracePeriod(cfg.Capture.GracePeriod.Std())
		}

		proxy := capture.NewProxy(client, recorder)
		proxy.SetLogger(log)

		if err := recorder.Start(map[string]string{"command": command}); err != nil {
			return err
		}

		ctx := cmd.Context()
		runConversation(ctx, proxy, log)

		session, err := recorder.Finish()
		if err != nil {
			return err
		}

		writer, err := trace.OpenWriter(cfg.TraceFile)
		if err != nil {
			return err
		}
		defer writer.Close()

		if err := writer.Append(session); err != nil {
			return err
		}

		fmt.Printf("Recorded session %s: %d calls -> %s\n",
			session.ID, len(session.Calls), cfg.TraceFile)
		return nil
	},
}

// runConversation drives the standard discovery conversation plus any
// requested tool calls. Individual operation failures are captured as
// recorded outcomes and do not stop the conversation.
func runConversation(ctx context.Context, session mcp.Session, log *slog.Logger) {
	if _, err := session.Initialize(ctx, mcp.InitializeParams{
		ClientInfo: mcp.ClientInfo{Name: "mcptape", Version: Version},
	}); err != nil {
		log.Warn("initialize failed", "error", err)
	}

	if !skipLists {
		if _, err := session.ListTools(ctx); err != nil {
			log.Warn("tools/list failed", "error", err)
		}
		if _, err := session.ListResources(ctx); err != nil {
			log.Warn("resources/list failed", "error", err)
		}
		if _, err := session.ListPrompts(ctx); err != nil {
			log.Warn("prompts/list failed", "error", err)
		}
	}

	for _, call := range recordCalls {
		name, callArgs, err := parseCallSpec(call)
		if err != nil {
			log.Warn("skipping malformed --call", "spec", call, "error", err)
			continue
		}
		if _, err := session.CallTool(ctx, name, callArgs); err != nil {
			log.Warn("tool call failed (recorded)", "tool", name, "error", err)
		}
	}
}

// parseCallSpec parses a --call spec of the form name={"json":"arguments"}.
// A bare name means a call with no arguments.
func parseCallSpec(spec string) (string, map[string]any, error) {
	name, rawArgs, found := strings.Cut(spec, "=")
	if name == "" {
		return "", nil, fmt.Errorf("empty tool name")
	}
	if !found || rawArgs == "" {
		return name, nil, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "", nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return name, args, nil
}

func init() {
	recordCmd.Flags().StringArrayVar(&recordEnv, "env", nil, "Extra KEY=VALUE environment entries for the server")
	recordCmd.Flags().StringArrayVar(&recordCalls, "call", nil, `Tool call to record, as name={"json":"args"} (repeatable)`)
	recordCmd.Flags().BoolVar(&skipLists, "skip-lists", false, "Skip the tools/resources/prompts discovery listings")
	rootCmd.AddCommand(recordCmd)
}
