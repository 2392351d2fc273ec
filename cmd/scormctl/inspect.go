package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mind-engage/web2scorm/internal/scorm/parser"
)

var errInconsistent = errors.New("manifest and archive disagree")

func inspectCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <package.zip>",
		Short: "Show the manifest of a SCORM zip and check it against the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			pkg, err := parser.Read(f, info.Size())
			if err != nil {
				return err
			}
			rep := pkg.Check()

			if dir := v.GetString("extract"); dir != "" {
				if err := parser.Extract(f, info.Size(), dir); err != nil {
					return err
				}
			}

			if v.GetBool("json") {
				if err := printJSON(cmd.OutOrStdout(), map[string]any{
					"manifest": pkg.Manifest,
					"files":    pkg.Files,
					"report":   rep,
					"ok":       rep.OK(),
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				title := ""
				if len(pkg.Manifest.Organizations) > 0 {
					title = pkg.Manifest.Organizations[0].Title
				}
				fmt.Fprintf(out, "%s  schema %s  %q\n", pkg.Manifest.Identifier, pkg.Manifest.SchemaVersion, title)

				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"Path", "Size", "Status"})
				for _, row := range inspectRows(pkg, rep) {
					tw.AppendRow(row)
				}
				tw.Render()
			}
			if !rep.OK() {
				return errInconsistent
			}
			return nil
		},
	}
	cmd.Flags().String("extract", "", "also unpack the archive into this directory")
	_ = v.BindPFlag("extract", cmd.Flags().Lookup("extract"))
	return cmd
}

func inspectRows(pkg *parser.Package, rep parser.Report) []table.Row {
	undeclared := map[string]bool{}
	for _, p := range rep.Undeclared {
		undeclared[p] = true
	}
	paths := make([]string, 0, len(pkg.Files))
	for p := range pkg.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rows := make([]table.Row, 0, len(paths)+len(rep.Missing))
	for _, p := range paths {
		status := "ok"
		if undeclared[p] {
			status = "undeclared"
		}
		rows = append(rows, table.Row{p, humanBytes(pkg.Files[p]), status})
	}
	for _, p := range rep.Missing {
		rows = append(rows, table.Row{p, "-", "missing"})
	}
	return rows
}
