package cli

import (
	"github.com/spf13/cobra"
)

func newTrimCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trim",
		Short: "Delete all but the most recent batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			evicted, err := a.service.Trim(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range evicted {
				cmd.Printf("evicted batch %d (%s)\n", b.ID, b.FileName)
			}
			cmd.Printf("%d batch(es) evicted, %d retained at most\n", len(evicted), a.service.Retained())
			return nil
		},
	}
}
