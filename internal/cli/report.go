package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/report"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report <batch-id>",
		Short: "Render a stored batch as a PDF or HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid batch id %q", args[0])
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			src, err := a.service.ReportSource(cmd.Context(), id)
			if err != nil {
				return err
			}
			doc := report.Build(src, report.Options{
				MaxDetailRows: opts.cfg.Report.MaxDetailRows,
				GeneratedAt:   time.Now(),
				Location:      opts.cfg.Report.Location(),
			})

			var buf bytes.Buffer
			if err := report.RendererFor(f).Render(&buf, doc); err != nil {
				return err
			}
			if out == "" {
				out = report.FileName(id, f)
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			cmd.Printf("wrote %s (%d bytes)\n", out, buf.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "report format: pdf or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default: batch_<id>_report.<format>)")
	return cmd
}
