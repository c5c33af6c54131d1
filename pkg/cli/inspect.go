package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcptape/mcptape/internal/query"
	"github.com/mcptape/mcptape/pkg/trace"
)

var (
	inspectSession  string
	inspectFilter   string
	inspectJSONPath string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the calls of a recorded session",
	Long: `Dump the calls of one session (the latest by default).

Calls can be narrowed with an expression over Method, Tool, Success,
Cancelled, Error, and DurationMs, and values can be extracted from recorded
result payloads with a JSONPath:

  mcptape inspect --filter 'Method == "tools/call" && !Success'
  mcptape inspect --jsonpath '$.content[0].text'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		reader := trace.NewReader(cfg.TraceFile)
		reader.SetLogger(log)

		session, err := pickSession(reader, inspectSession)
		if err != nil {
			return err
		}

		var filter *query.CallFilter
		if inspectFilter != "" {
			if filter, err = query.CompileCallFilter(inspectFilter); err != nil {
				return err
			}
		}

		for i, rec := range session.Calls {
			if filter != nil {
				ok, err := filter.Match(rec)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}

			if inspectJSONPath != "" {
				if err := printExtracted(i, rec, inspectJSONPath); err != nil {
					return err
				}
				continue
			}
			printCall(i, rec)
		}
		return nil
	},
}

// pickSession returns the named session, or the latest when id is empty.
func pickSession(reader *trace.Reader, id string) (*trace.Session, error) {
	if id == "" {
		return reader.ReadLatest()
	}

	sessions, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session %s not found in %s", id, reader.Path())
}

// printCall writes one call record in a compact human-readable form.
func printCall(i int, rec trace.CallRecord) {
	status := "no-response"
	detail := ""
	switch {
	case rec.Cancelled:
		status = "cancelled"
	case rec.Response != nil && rec.Response.Success:
		status = "ok"
	case rec.Response != nil:
		status = "error"
		detail = rec.Response.Error
	}

	kwargs, _ := json.Marshal(rec.Request.Kwargs)
	fmt.Printf("%3d  %-16s %-9s %7.1fms  %s", i, rec.Request.Method, status, rec.DurationMs, kwargs)
	if detail != "" {
		fmt.Printf("  %s", detail)
	}
	fmt.Println()
}

// printExtracted applies the JSONPath to the recorded result payload and
// writes the matches.
func printExtracted(i int, rec trace.CallRecord, path string) error {
	if rec.Response == nil || rec.Response.Result == nil {
		return nil
	}
	values, err := query.ExtractJSONPath(path, rec.Response.Result.Payload)
	if err != nil {
		return err
	}
	for _, v := range values {
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%3d  %s  %s\n", i, rec.Request.Method, out)
	}
	return nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSession, "session", "", "Session id (default: latest)")
	inspectCmd.Flags().StringVar(&inspectFilter, "filter", "", "Expression over Method, Tool, Success, Cancelled, Error, DurationMs")
	inspectCmd.Flags().StringVar(&inspectJSONPath, "jsonpath", "", "JSONPath to extract from recorded result payloads")
	rootCmd.AddCommand(inspectCmd)
}
