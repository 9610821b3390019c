package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/loginchallenge/internal/config"
	"github.com/Dicklesworthstone/loginchallenge/internal/db"
	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "List recently recorded login failures",
	Long: `List login failures recorded in the diagnostics database, newest first.

Examples:
  loginchallenge diagnostics
  loginchallenge diagnostics --limit 50 --json`,
	Args: cobra.NoArgs,
	RunE: runDiagnostics,
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
	diagnosticsCmd.Flags().Int("limit", 20, "number of entries to show")
	diagnosticsCmd.Flags().Bool("json", false, "output as JSON")
}

// DiagnosticsItem is one failure in JSON output.
type DiagnosticsItem struct {
	AttemptID string `json:"attempt_id"`
	At        string `json:"at"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
	Discarded bool   `json:"discarded,omitempty"`
}

// DiagnosticsOutput is the complete JSON output.
type DiagnosticsOutput struct {
	Failures []DiagnosticsItem `json:"failures"`
	Totals   map[string]int    `json:"totals"`
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := openDiagnostics(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	store := diag.NewStore(d, nil)
	defer store.Close()
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	totals, err := d.CountFailuresByKind(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		out := DiagnosticsOutput{
			Failures: make([]DiagnosticsItem, 0, len(entries)),
			Totals:   totals,
		}
		for _, e := range entries {
			out.Failures = append(out.Failures, DiagnosticsItem{
				AttemptID: e.AttemptID,
				At:        e.At.UTC().Format(time.RFC3339),
				Kind:      e.Kind,
				Detail:    e.Detail,
				Discarded: e.Discarded,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No login failures recorded.")
		return nil
	}
	return renderDiagnostics(cmd.OutOrStdout(), entries, totals)
}

// openDiagnostics opens the failure log with the configured retention.
func openDiagnostics(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	return db.Open(ctx, cfg.DiagnosticsPath(), db.Options{
		Retention: db.Retention{
			MaxAge:  cfg.Diagnostics.MaxAge,
			MaxRows: cfg.Diagnostics.MaxRows,
		},
	})
}

func renderDiagnostics(w io.Writer, entries []diag.Entry, totals map[string]int) error {
	_, _ = fmt.Fprintln(w, "Recent Login Failures")
	_, _ = fmt.Fprintln(w, "───────────────────────────────────────")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WHEN\tKIND\tATTEMPT\tDETAIL")
	for _, e := range entries {
		kind := e.Kind
		if e.Discarded {
			kind += " (discarded)"
		}
		attempt := e.AttemptID
		if len(attempt) > 8 {
			attempt = attempt[:8]
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.At.Local().Format("2006-01-02 15:04:05"),
			kind,
			attempt,
			e.Detail,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	kinds := make([]string, 0, len(totals))
	for k := range totals {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Totals")
	for _, k := range kinds {
		_, _ = fmt.Fprintf(w, "  %-20s %d\n", k, totals[k])
	}
	return nil
}
