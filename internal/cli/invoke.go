package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Content string
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <kind/key> <op>",
		Short: "Invoke one operation against an entity",
		Long: `Invoke one operation against an entity and print its result.

The operation runs against the SQLite-backed runtime at --db, commits, and
journals before the result prints.

Example:
  stately invoke counter/visits increment
  stately invoke phonebook/home set --content '{"name":"alice","number":12345}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Content, "content", "", "operation payload as JSON (omit for none)")

	return cmd
}

// invokeResult is the JSON payload of a successful invoke.
type invokeResult struct {
	Entity  string `json:"entity"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
	Result  any    `json:"result,omitempty"`
}

func runInvoke(opts *InvokeOptions, entityRef, op string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	id, err := entity.ParseID(entityRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity", err)
	}

	content, err := parseContent(opts.Content)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --content", err)
	}

	rt, err := openRuntime(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	f.VerboseLog("invoking %s %s", id, op)
	out, err := rt.sched.Call(ctx, id, op, content)
	if err != nil {
		code := string(entity.CodeOf(err))
		if code == "" {
			code = "RUNTIME"
		}
		_ = f.Error(code, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if f.Format == "json" {
		return f.Success(invokeResult{
			Entity:  id.String(),
			Op:      op,
			Outcome: "ok",
			Result:  resultToGo(out),
		})
	}

	if out == nil {
		fmt.Fprintln(f.Writer, "ok")
		return nil
	}
	rendered, err := codec.Marshal(out)
	if err != nil {
		return WrapExitError(ExitCommandError, "render result", err)
	}
	fmt.Fprintln(f.Writer, string(rendered))
	return nil
}

// parseContent decodes the --content JSON into a runtime value. Empty
// means no payload.
func parseContent(raw string) (codec.Value, error) {
	if raw == "" {
		return nil, nil
	}
	return codec.Unmarshal([]byte(raw))
}

// resultToGo renders a value for the JSON envelope.
func resultToGo(v codec.Value) any {
	if v == nil {
		return nil
	}
	raw, err := codec.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}
