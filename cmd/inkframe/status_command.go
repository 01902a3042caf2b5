package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"inkframe/internal/ipc"
	"inkframe/internal/slideshow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show frame and slideshow status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				renderStatus(out, status, shouldColorize(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

func renderStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	printSectionHeader(out, "Frame", colorize)
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Running", statusOK, fmt.Sprintf("pid %d", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Running", statusWarn, "slideshow stopped", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Driver", statusInfo, status.Driver, colorize))
	fmt.Fprintln(out, renderStatusLine("Library", statusInfo, status.ImageDir, colorize))
	if status.RemoteAddr != "" {
		fmt.Fprintln(out, renderStatusLine("Remote", statusInfo, "http://"+status.RemoteAddr, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Remote", statusInfo, "disabled", colorize))
	}
	if status.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	fmt.Fprintln(out)

	printSectionHeader(out, "Slideshow", colorize)
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, slideshowRows(status)))
}

func slideshowRows(status *ipc.StatusResponse) [][]string {
	show := status.Slideshow
	play := status.Playback

	position := "-"
	if show.Phase == slideshow.PhaseBrowsing && show.CatalogSize > 0 {
		position = fmt.Sprintf("%d / %d", show.Index+1, show.CatalogSize)
	}
	current := "-"
	if play.CurrentPath != "" {
		current = filepath.Base(play.CurrentPath)
	}
	casting := yesNo(play.Casting())
	if play.Casting() && !play.CastDisplayed {
		casting += " (pending)"
	}
	lastFrame := "-"
	if !show.LastFrameAt.IsZero() {
		lastFrame = show.LastFrameAt.Local().Format(time.DateTime)
	}

	return [][]string{
		{"Phase", string(show.Phase)},
		{"Position", position},
		{"Current", current},
		{"Paused", yesNo(play.Paused)},
		{"Casting", casting},
		{"Frames rendered", strconv.FormatInt(show.FramesRendered, 10)},
		{"Decode failures", strconv.FormatInt(show.DecodeFailures, 10)},
		{"Last frame", lastFrame},
	}
}
