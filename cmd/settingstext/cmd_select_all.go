package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/report"
)

func newSelectAllCmd(a *app) *cobra.Command {
	var workflowPath, exclude, output string

	cmd := &cobra.Command{
		Use:   "select-all",
		Short: "Print a selection covering every parameter of every active node",
		Long: `select-all emits the selection JSON the host widget would store after
"select all": muted and bypassed nodes are skipped, as is --exclude
(normally the reporting node itself).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			workflow, err := readInput(workflowPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			entries, err := svc.SelectAll(workflow, exclude)
			if err != nil {
				return err
			}
			data, err := report.MarshalSelection(entries)
			if err != nil {
				return err
			}
			return writeOutput(output, cmd.OutOrStdout(), string(data))
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&workflowPath, "workflow", "w", "", "Design-time graph JSON file (- for stdin)")
	fl.StringVar(&exclude, "exclude", "", "Node id to leave out")
	fl.StringVarP(&output, "output", "o", "", "Write the selection to this file instead of stdout")
	cmd.MarkFlagRequired("workflow")
	return cmd
}
