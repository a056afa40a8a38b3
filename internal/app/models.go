// internal/app/models.go
package app

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mavekit/internal/appcore"
	"mavekit/internal/jsonutil"
	"mavekit/internal/zoo"
)

type modelView struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Alphabet    string   `json:"alphabet,omitempty"`
	Reduction   string   `json:"reduction,omitempty"`
	Tasks       []string `json:"tasks"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
}

func newModelsCmd(e *env) *cobra.Command {
	var (
		output string
		export string
	)
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models of the catalog",
		Args:  usageArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if export != "" {
				if err := e.catalog.WriteFile(export); err != nil {
					return err
				}
				fmt.Fprintf(e.stdout, "wrote %s\n", export)
				return nil
			}
			entries := e.catalog.Entries()
			switch output {
			case "json":
				views := make([]modelView, 0, len(entries))
				for _, en := range entries {
					views = append(views, viewOf(en))
				}
				return jsonutil.EncodePretty(e.stdout, views)
			case "text":
				tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tKIND\tTASKS\tDESCRIPTION")
				for _, en := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", en.Name, en.Kind, strings.Join(en.TaskNames(), ","), en.Description)
				}
				return tw.Flush()
			}
			return appcore.Usagef("--output: want text|json, got %q", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text|json")
	cmd.Flags().StringVar(&export, "export", "", "write the merged catalog as YAML to this path")
	return cmd
}

func viewOf(en zoo.Entry) modelView {
	alpha := en.Alphabet
	if alpha == "" && en.Kind == zoo.KindPWM {
		alpha = "ACGT"
	}
	return modelView{
		Name:        en.Name,
		Kind:        en.Kind,
		Alphabet:    alpha,
		Reduction:   en.Reduction,
		Tasks:       en.TaskNames(),
		URL:         en.URL,
		Description: en.Description,
	}
}
