package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/slprescale/pkg/slprescale"
)

func (c *cli) resizeVideosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize-videos INPUT_DIR OUTPUT_DIR",
		Short: "Resize every video under a directory into a mirrored tree",
		Long: `Find videos under INPUT_DIR matching --include, resize them with ffmpeg and
write them to the same relative path under OUTPUT_DIR. Videos whose output
already exists are skipped. With --watch, keep running and resize new files
as they appear.`,
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
			out := cmd.OutOrStdout()

			if !c.cfg.Watch {
				sum, err := r.ResizeVideos(ctx, args[0], args[1], to)
				if err != nil {
					return err
				}
				printBatch(out, sum)
				return nil
			}

			return r.WatchVideos(ctx, args[0], args[1], to, func(rel string, sum slprescale.BatchSummary) {
				if rel == "" {
					printBatch(out, sum)
					return
				}
				fmt.Fprintf(out, "%s: ", rel)
				printBatch(out, sum)
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&c.cfg.Width, "width", c.cfg.Width, "target video width")
	f.IntVar(&c.cfg.Height, "height", c.cfg.Height, "target video height")
	f.StringSliceVar(&c.cfg.VideoInclude, "include", c.cfg.VideoInclude, "glob patterns of videos to resize, relative to INPUT_DIR")
	f.BoolVar(&c.cfg.Watch, "watch", c.cfg.Watch, "keep running and resize new videos as they appear")
	f.DurationVar(&c.cfg.SettleDelay, "settle", c.cfg.SettleDelay, "how long a new file must be unchanged before it is resized")
	f.StringVar(&c.cfg.FFmpegPath, "ffmpeg", c.cfg.FFmpegPath, "ffmpeg executable")
	f.StringVar(&c.cfg.FFprobePath, "ffprobe", c.cfg.FFprobePath, "ffprobe executable")
	f.IntVar(&c.cfg.QScale, "qscale", c.cfg.QScale, "MPEG-4 quantizer (1 best, 31 worst)")
	return cmd
}
