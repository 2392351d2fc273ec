package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mind-engage/web2scorm/internal/scorm"
)

var logoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".bmp":  "image/bmp",
	".avif": "image/avif",
}

func buildCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a SCORM zip from a YAML or JSON record",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := v.GetString("config")
			if configPath == "" {
				return errors.New("--config is required")
			}
			rec, err := scorm.LoadRecord(configPath)
			if err != nil {
				return err
			}
			if logo := v.GetString("logo"); logo != "" {
				if rec.Logo, err = logoDataURI(logo, v.GetInt("max-logo")); err != nil {
					return err
				}
			}

			pkg, err := scorm.NewBuilder(scorm.Options{InlineAssetMaxBytes: v.GetInt("inline-max")}).Build(rec)
			var cerr *scorm.ConfigError
			if errors.As(err, &cerr) {
				for _, f := range cerr.Fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Reason)
				}
				return scorm.ErrInvalidConfig
			}
			if err != nil {
				return err
			}

			out := v.GetString("out")
			if out == "" {
				out = pkg.FileName()
			}
			if err := os.WriteFile(out, pkg.Archive, 0o644); err != nil {
				return err
			}

			summary := map[string]any{
				"file":    out,
				"title":   pkg.Record.Title,
				"version": string(pkg.Record.ScormVersion),
				"type":    string(pkg.Record.PackageType),
				"size":    len(pkg.Archive),
				"digest":  pkg.Digest,
				"entries": len(pkg.Content.Files) + 1,
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"File", "Version", "Type", "Entries", "Size", "SHA-256"})
			tw.AppendRow(table.Row{out, pkg.Record.ScormVersion, pkg.Record.PackageType, summary["entries"], humanBytes(int64(len(pkg.Archive))), pkg.Digest[:12]})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().String("config", "", "path to the configuration record (YAML or JSON)")
	cmd.Flags().String("logo", "", "image file to embed as the header logo")
	cmd.Flags().String("out", "", "output zip path (default: slugged title)")
	cmd.Flags().Int("inline-max", scorm.DefaultInlineAssetMaxBytes, "largest logo inlined in the stylesheet, in bytes (negative never inlines)")
	cmd.Flags().Int("max-logo", 1<<20, "largest accepted logo file, in bytes")
	for _, name := range []string{"config", "logo", "out", "inline-max", "max-logo"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

// logoDataURI reads an image file into a base64 data URI.
func logoDataURI(path string, max int) (string, error) {
	mime, ok := logoTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("logo %s: unsupported image extension", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(max)+1))
	if err != nil {
		return "", err
	}
	if len(data) > max {
		return "", fmt.Errorf("logo %s: larger than %d bytes", path, max)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
