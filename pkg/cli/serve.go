package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcptape/mcptape/pkg/mcp"
	"github.com/mcptape/mcptape/pkg/replay"
	"github.com/mcptape/mcptape/pkg/trace"
)

var serveTraces []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a recorded session as a mock MCP server over stdio",
	Long: `Build a replay index from one or more trace files and answer the MCP
protocol from it — deterministically, with no backend.

Recorded successes and failures are replayed verbatim. Calls never recorded
fail loudly with a replay-miss error instead of a fabricated answer.

Configure an MCP client to spawn it:

  { "command": "mcptape", "args": ["serve", "--trace", "session.ndjson"] }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		paths := serveTraces
		if len(paths) == 0 {
			paths = []string{cfg.TraceFile}
		}

		builder := replay.NewBuilder()
		builder.SetLogger(log)
		for _, path := range paths {
			reader := trace.NewReader(path)
			reader.SetLogger(log)
			if err := builder.AddTrace(reader); err != nil {
				return err
			}
		}
		index := builder.Build()

		responder := replay.NewResponder()
		responder.SetLogger(log)
		if err := responder.Load(index); err != nil {
			return err
		}
		if err := responder.Start(); err != nil {
			return err
		}
		defer responder.Stop()

		log.Info("serving replay",
			"keys", index.Len(), "calls", index.RecordedCalls(),
			"tools", len(index.ToolNames()))

		server := mcp.NewStdioServer(responder)
		server.SetLogger(log)
		return server.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringArrayVar(&serveTraces, "trace-file", nil, "Trace file to replay (repeatable; later files win collisions)")
	rootCmd.AddCommand(serveCmd)
}
