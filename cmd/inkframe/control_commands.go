package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"inkframe/internal/ipc"
)

func newControlCommands(ctx *commandContext) []*cobra.Command {
	control := func(use, short string, call func(*ipc.Client) (*ipc.CommandResponse, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := call(client)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				})
			},
		}
	}

	return []*cobra.Command{
		control("next", "Skip to the next image", (*ipc.Client).Next),
		control("previous", "Go back one image", (*ipc.Client).Previous),
		control("pause", "Toggle pause", (*ipc.Client).TogglePause),
		control("resume", "End a cast and resume the slideshow", (*ipc.Client).Resume),
	}
}

func newCastCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cast <image>",
		Short: "Show an image until resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve image path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Cast(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Casting %s; slideshow paused until resume\n", filepath.Base(path))
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
