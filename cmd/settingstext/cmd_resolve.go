package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

type resolveFlags struct {
	prompt   string
	workflow string
	node     string
	param    string
	json     bool
}

func newResolveCmd(a *app) *cobra.Command {
	f := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a single node parameter",
		Example: `  settingstext resolve -p prompt.json --node 3 --param seed
  settingstext resolve -p prompt.json -w workflow.json --node 12 --param width --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			prompt, err := readInput(f.prompt, in)
			if err != nil {
				return err
			}
			workflow, err := readInput(f.workflow, in)
			if err != nil {
				return err
			}

			res, err := svc.Resolve(cmd.Context(), &validation.ResolveRequest{
				Prompt:   prompt,
				Workflow: workflow,
				Node:     f.node,
				Param:    f.param,
			})
			if err != nil {
				return err
			}

			if !f.json {
				return writeOutput("", cmd.OutOrStdout(), res.Value)
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			return writeOutput("", cmd.OutOrStdout(), string(data))
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.prompt, "prompt", "p", "", "Authoritative graph JSON file (- for stdin)")
	fl.StringVarP(&f.workflow, "workflow", "w", "", "Design-time graph JSON file")
	fl.StringVar(&f.node, "node", "", "Node id")
	fl.StringVar(&f.param, "param", "", "Parameter name")
	fl.BoolVar(&f.json, "json", false, "Print value, outcome and depth as JSON")
	cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagRequired("node")
	cmd.MarkFlagRequired("param")
	return cmd
}
