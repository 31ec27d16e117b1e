package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of every registered file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.statusFn(cmd)
		},
	}
}

func (a *appState) renderStatus(_ *cobra.Command) error {
	reg, closeStore, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer closeStore()

	jobs := reg.Snapshot()
	if len(jobs) == 0 {
		fmt.Fprintln(a.outWriter(), "No files registered yet.")
		return nil
	}

	fmt.Fprintln(a.outWriter(), renderJobTable(jobs, a.colorEnabled()))
	return nil
}
