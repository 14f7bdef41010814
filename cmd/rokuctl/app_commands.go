package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
)

func newListAppsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list-apps",
		Aliases: []string{"apps"},
		Short:   "List installed applications",
		Long:    "List the applications cached in the registry. The list is fetched from the device when --refresh is set or the cache is empty.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			store, err := sess.loadStore()
			if err != nil {
				return err
			}
			apps := store.Apps
			if refresh || len(apps) == 0 {
				if apps, err = sess.registry.RefreshApps(cmd.Context(), store); err != nil {
					return err
				}
			}

			if jsonOut {
				if apps == nil {
					apps = []ecp.Application{}
				}
				return writeJSON(cmd, apps)
			}
			out := cmd.OutOrStdout()
			if len(apps) == 0 {
				fmt.Fprintln(out, "No applications installed")
				return nil
			}
			rows := make([][]string, 0, len(apps))
			for i, app := range apps {
				rows = append(rows, []string{strconv.Itoa(i + 1), app.ID, app.Name, app.Type, app.Version})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "ID", "Name", "Type", "Version"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the application list from the device first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	var contentID string
	var mediaType string

	cmd := &cobra.Command{
		Use:   "launch <app>",
		Short: "Launch an installed application by name or ID",
		Long: `Launch an installed application. The name is matched case-insensitively,
exact names first and then substrings; an application ID also works.

--content-id deep links into content. YouTube watch URLs are reduced to their
video ID.`,
		Example: `  rokuctl launch netflix
  rokuctl launch youtube --content-id https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			store, err := sess.loadStore()
			if err != nil {
				return err
			}
			app, err := sess.resolver(store).Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			launch := ecp.Launch{App: app.Ref(), ContentID: contentID, MediaType: mediaType}
			if _, err := sess.send(cmd.Context(), launch, store.Device); err != nil {
				return err
			}
			logging.WithContext(cmd.Context(), sess.logger).Info("application launched",
				logging.String("app_id", app.ID),
				logging.String("app", app.Name),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Launched %s (%s) on %s\n", app.Name, app.ID, store.Device)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentID, "content-id", "", "Content to open inside the app (YouTube URLs accepted)")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "Media type of --content-id, e.g. movie, episode, live")
	return cmd
}
