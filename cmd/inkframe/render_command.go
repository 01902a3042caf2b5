package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"inkframe/internal/compositor"
	"inkframe/internal/display/epd7in3e"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var caption string
	var noCaption bool
	var dither bool

	cmd := &cobra.Command{
		Use:   "render <image> [output.png]",
		Short: "Compose an image for the panel and save it as PNG",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			comp, err := compositor.New(compositor.Options{
				Width:    cfg.Display.Width,
				Height:   cfg.Display.Height,
				FontPath: cfg.Paths.FontPath,
				FontSize: cfg.Display.CaptionFontSize,
			})
			if err != nil {
				return err
			}

			source := args[0]
			output := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".frame.png"
			if len(args) == 2 {
				output = args[1]
			}

			var frame *compositor.Frame
			switch {
			case noCaption:
				frame, err = composeWithCaption(comp, source, "")
			case caption != "":
				frame, err = composeWithCaption(comp, source, caption)
			default:
				frame, err = comp.ComposeFile(source)
			}
			if err != nil {
				return err
			}

			var img image.Image = frame.Image
			if dither {
				img = epd7in3e.Quantize(img)
			}
			if err := imaging.Save(img, output); err != nil {
				return fmt.Errorf("save %s: %w", output, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %s -> %s\n", filepath.Base(source), output)
			fmt.Fprintf(out, "Scaled to %dx%d at %d,%d (rotated: %s, font: %s)\n",
				frame.ScaledSize.X, frame.ScaledSize.Y, frame.Offset.X, frame.Offset.Y,
				yesNo(frame.Rotated), comp.FaceName())
			return nil
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Caption text instead of the file name")
	cmd.Flags().BoolVar(&noCaption, "no-caption", false, "Omit the caption")
	cmd.Flags().BoolVar(&dither, "dither", false, "Preview the six-colour panel palette")
	return cmd
}

func composeWithCaption(comp *compositor.Compositor, path, caption string) (*compositor.Frame, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", compositor.ErrDecode, err)
	}
	return comp.ComposeImage(img, caption)
}
