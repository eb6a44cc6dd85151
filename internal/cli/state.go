package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/store"
)

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state <kind/key>",
		Short: "Inspect an entity's durable state",
		Long: `Print the durable state of a storage-backed entity.

Reads the backing store directly without activating the entity, so it
never interferes with in-flight operations of a running process.

Example:
  stately state textstore/notes`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// stateResult is the JSON payload of a state read.
type stateResult struct {
	Entity string `json:"entity"`
	Exists bool   `json:"exists"`
	Value  any    `json:"value,omitempty"`
}

func runState(opts *RootOptions, entityRef string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := context.Background()

	id, err := entity.ParseID(entityRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity", err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DB), err)
	}
	defer st.Close()

	blob, ok, err := st.Get(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "read state", err)
	}

	if !ok {
		if f.Format == "json" {
			return f.Success(stateResult{Entity: id.String(), Exists: false})
		}
		fmt.Fprintf(f.Writer, "%s: absent\n", id)
		return nil
	}

	value, err := codec.Unmarshal(blob)
	if err != nil {
		return WrapExitError(ExitCommandError, "decode state", err)
	}

	if f.Format == "json" {
		return f.Success(stateResult{Entity: id.String(), Exists: true, Value: resultToGo(value)})
	}
	rendered, err := codec.Marshal(value)
	if err != nil {
		return WrapExitError(ExitCommandError, "render state", err)
	}
	fmt.Fprintln(f.Writer, string(rendered))
	return nil
}
