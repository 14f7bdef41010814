package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
)

var keyDescriptions = map[string]string{
	"up":          "Press Up",
	"down":        "Press Down",
	"left":        "Press Left",
	"right":       "Press Right",
	"select":      "Press Select (OK)",
	"back":        "Press Back",
	"home":        "Go to the home screen",
	"play":        "Toggle play",
	"pause":       "Pause playback",
	"mute":        "Toggle mute",
	"volume-up":   "Raise the volume",
	"volume-down": "Lower the volume",
	"power-off":   "Turn the device off",
}

func newKeyCommands(ctx *commandContext) []*cobra.Command {
	names := ecp.KeyCommandNames()
	cmds := make([]*cobra.Command, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, newKeyCommand(ctx, name))
	}
	return cmds
}

func newKeyCommand(ctx *commandContext, name string) *cobra.Command {
	var repeat int

	short := keyDescriptions[name]
	if short == "" {
		short = fmt.Sprintf("Press %s", name)
	}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1")
			}
			key, err := ecp.ParseKey(name)
			if err != nil {
				return err
			}
			sess, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			store, err := sess.loadStore()
			if err != nil {
				return err
			}
			for i := 0; i < repeat; i++ {
				resp, err := sess.send(cmd.Context(), key, store.Device)
				if err != nil {
					return err
				}
				logging.WithContext(cmd.Context(), sess.logger).Info("key sent",
					logging.String("key", string(key.Key)),
					logging.String(logging.FieldDevice, store.Device.String()),
					logging.Int("attempts", resp.Attempts),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "Press the key this many times")
	return cmd
}
