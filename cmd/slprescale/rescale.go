package main

import (
	"github.com/spf13/cobra"

	"github.com/bft-labs/slprescale/pkg/slprescale"
)

func (c *cli) rescaleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescale INPUT OUTPUT",
		Short: "Rescale points, embedded frames and video metadata",
		Long: `Rescale every labeled point from the old to the new resolution, resize
embedded frames (when --images is set) and rewrite backend.shape in each
video's metadata. OUTPUT may equal INPUT.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			r, err := c.rescaler()
			if err != nil {
				return err
			}
			defer r.Close()

			sum, err := r.Rescale(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), args[1], sum)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&c.cfg.OldWidth, "old-width", c.cfg.OldWidth, "source frame width")
	f.IntVar(&c.cfg.OldHeight, "old-height", c.cfg.OldHeight, "source frame height")
	f.IntVar(&c.cfg.NewWidth, "new-width", c.cfg.NewWidth, "target frame width")
	f.IntVar(&c.cfg.NewHeight, "new-height", c.cfg.NewHeight, "target frame height")
	f.BoolVar(&c.cfg.ResizeImages, "images", c.cfg.ResizeImages, "resize embedded frames")
	f.IntVar(&c.cfg.JPEGQuality, "jpeg-quality", c.cfg.JPEGQuality, "JPEG quality for re-encoded frames (1-100)")
	f.BoolVar(&c.cfg.RefuseRescaled, "refuse-rescaled", c.cfg.RefuseRescaled, "fail when the input is the output of an earlier run")
	return cmd
}

func (c *cli) setShapeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-shape INPUT OUTPUT",
		Short: "Rewrite the frame size recorded in video metadata",
		Long: `Set height and width in backend.shape (and source_video.backend.shape) of
every video record. Points and frames are not touched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			r, err := c.rescaler()
			if err != nil {
				return err
			}
			defer r.Close()

			to := slprescale.Resolution{Width: c.cfg.Width, Height: c.cfg.Height}
			sum, err := r.SetShape(ctx, args[0], args[1], to)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), args[1], sum)
			return nil
		},
	}

	cmd.Flags().IntVar(&c.cfg.Width, "width", c.cfg.Width, "frame width to record")
	cmd.Flags().IntVar(&c.cfg.Height, "height", c.cfg.Height, "frame height to record")
	return cmd
}
