package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marinedrive/phyto-backend/internal/derive"
	"github.com/marinedrive/phyto-backend/internal/markers"
	"github.com/marinedrive/phyto-backend/internal/models"
)

func newDeriveCommand(a *app) *cobra.Command {
	var (
		dataset     string
		bucket      float64
		limit       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "derive <species>...",
		Short: "Derive occurrence markers from the dataset and print them as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataset == "" {
				dataset = a.cfg.DatasetPath
			}
			opts := derive.Options{BucketDeg: a.cfg.BucketDeg, Limit: a.cfg.MarkerLimit}
			if cmd.Flags().Changed("bucket") {
				opts.BucketDeg = bucket
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = limit
			}
			if concurrency < 1 {
				concurrency = 1
			}
			if !(opts.BucketDeg > 0) || opts.Limit <= 0 {
				return fmt.Errorf("--bucket and --limit must be positive")
			}

			d := derive.New(derive.FileSource{Path: dataset}, markers.NewStore(), derive.WithLogger(a.logger))
			results := make([]models.LocationsResponse, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, species := range args {
				g.Go(func() error {
					out, err := d.Derive(ctx, species, opts)
					if err != nil {
						return fmt.Errorf("derive %q: %w", species, err)
					}
					results[i] = models.LocationsResponse{Species: species, Markers: out}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "CSV dataset to read (default from config).")
	cmd.Flags().Float64Var(&bucket, "bucket", 0, "Grid resolution in degrees (default from config).")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum markers per species (default from config).")
	cmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Species derived in parallel.")
	return cmd
}
