package main

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mind-engage/web2scorm/internal/builds"
	"github.com/mind-engage/web2scorm/internal/db"
)

func historyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List packages built by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			dbh, err := db.Open(ctx, db.Driver(v.GetString("db-driver")), v.GetString("db-dsn"))
			if err != nil {
				return err
			}
			defer dbh.Close()

			list, err := builds.NewSQLStore(dbh).List(ctx, builds.ListOpts{
				Version: v.GetString("version"),
				Limit:   v.GetInt("limit"),
			})
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				if list == nil {
					list = []builds.Build{}
				}
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Title", "Version", "Type", "Size", "Built By", "Created"})
			for _, b := range list {
				tw.AppendRow(table.Row{b.ID, b.Title, b.ScormVersion, b.PackageType, humanBytes(b.SizeBytes), b.BuiltBy, b.CreatedAt.Format(time.RFC3339)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().String("db-driver", "sqlite", "database driver (sqlite|postgres)")
	cmd.Flags().String("db-dsn", "", "database DSN")
	cmd.Flags().String("version", "", "filter by SCORM version (1.2|2004)")
	cmd.Flags().Int("limit", 50, "maximum rows")
	for _, name := range []string{"db-driver", "db-dsn", "version", "limit"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}
