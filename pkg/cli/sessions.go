package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcptape/mcptape/internal/query"
	"github.com/mcptape/mcptape/pkg/trace"
)

var (
	sessionsFilter string
	sessionsJSON   bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions in a trace file",
	Long: `List every session in the trace file with its id, server, call count,
and duration.

Sessions can be narrowed with an expression over ID, Server, and Calls:

  mcptape sessions --filter 'Server == "calculator" && Calls > 2'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		reader := trace.NewReader(cfg.TraceFile)
		reader.SetLogger(log)
		sessions, err := reader.ReadAll()
		if err != nil {
			return err
		}

		if sessionsFilter != "" {
			filter, err := query.CompileSessionFilter(sessionsFilter)
			if err != nil {
				return err
			}
			var kept []*trace.Session
			for _, s := range sessions {
				ok, err := filter.Match(s)
				if err != nil {
					return err
				}
				if ok {
					kept = append(kept, s)
				}
			}
			sessions = kept
		}

		if sessionsJSON {
			return json.NewEncoder(os.Stdout).Encode(sessions)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tSERVER\tCALLS\tSTARTED\tDURATION")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				s.ID, s.ServerInfo["name"], len(s.Calls),
				s.StartedAt.Format("2006-01-02 15:04:05"), s.Duration())
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsFilter, "filter", "", "Expression over ID, Server, Calls")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output sessions as JSON")
	rootCmd.AddCommand(sessionsCmd)
}
