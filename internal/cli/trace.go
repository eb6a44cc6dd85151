package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Entity string
	Token  string
	Limit  int
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the operation journal",
		Long: `Print journal rows in sequence order, optionally filtered by entity
or correlation token.

Example:
  stately trace --entity counter/visits
  stately trace --token 0194fdc2-... --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entity, "entity", "", "filter by entity (kind/key)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "filter by correlation token")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 = all)")

	return cmd
}

// traceRow is the JSON form of one journal row.
type traceRow struct {
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
	Entity  string `json:"entity"`
	Op      string `json:"op"`
	Content string `json:"content,omitempty"`
	Outcome string `json:"outcome"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	q := store.Query{Token: opts.Token, Limit: opts.Limit}
	if opts.Entity != "" {
		id, err := entity.ParseID(opts.Entity)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --entity", err)
		}
		q.Entity = &id
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DB), err)
	}
	defer st.Close()

	recs, err := st.Records(ctx, q)
	if err != nil {
		return WrapExitError(ExitCommandError, "read journal", err)
	}

	if f.Format == "json" {
		rows := make([]traceRow, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, traceRow{
				Seq:     rec.Seq,
				Token:   rec.Token,
				Entity:  rec.Entity.String(),
				Op:      rec.Op,
				Content: rec.Content,
				Outcome: string(rec.Outcome),
				Result:  rec.Result,
				Error:   rec.Error,
			})
		}
		return f.Success(rows)
	}

	if len(recs) == 0 {
		fmt.Fprintln(f.Writer, "journal is empty")
		return nil
	}

	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tENTITY\tOP\tOUTCOME\tRESULT\tERROR")
	for _, rec := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.Seq, rec.Entity, rec.Op, rec.Outcome, rec.Result, rec.Error)
	}
	return w.Flush()
}
