package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		searchType      string
		title           string
		season          int
		launch          bool
		provider        string
		providerID      string
		tmsID           string
		showUnavailable bool
		matchAny        bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Open the Roku search UI for a query",
		Long: `Open the Roku search screen with the given keyword.

With --launch the device is asked to start the first matching result in the
selected provider. Roku does not always honour this; when it does not, the
search results are shown instead.`,
		Example: `  rokuctl search "the office" --type tv-show --season 3
  rokuctl search inception --launch --provider-id 12`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			options := make(map[string]string)
			setIfChanged := func(name, value string) {
				if flags.Changed(name) {
					options[name] = value
				}
			}
			setIfChanged("type", searchType)
			setIfChanged("title", title)
			setIfChanged("season", strconv.Itoa(season))
			setIfChanged("launch", strconv.FormatBool(launch))
			setIfChanged("provider", provider)
			setIfChanged("provider-id", providerID)
			setIfChanged("tmsid", tmsID)
			setIfChanged("show-unavailable", strconv.FormatBool(showUnavailable))
			setIfChanged("match-any", strconv.FormatBool(matchAny))

			search := ecp.Search{Query: strings.Join(args, " "), Options: options}
			// Encode before touching the registry so bad flags fail fast.
			if _, err := ecp.Encode(search); err != nil {
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
			if _, err := sess.send(cmd.Context(), search, store.Device); err != nil {
				return err
			}
			logging.WithContext(cmd.Context(), sess.logger).Info("search sent",
				logging.String("keyword", search.Query),
				logging.Int("options", len(options)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Searching for %q on %s\n", search.Query, store.Device)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&searchType, "type", "", "Result type: movie, tv-show, person, channel, game")
	flags.StringVar(&title, "title", "", "Exact title to match")
	flags.IntVar(&season, "season", 0, "Season number for tv-show searches")
	flags.BoolVar(&launch, "launch", false, "Launch the first match instead of showing results")
	flags.StringVar(&provider, "provider", "", "Preferred provider name, e.g. Netflix")
	flags.StringVar(&providerID, "provider-id", "", "Preferred provider app ID, e.g. 12")
	flags.StringVar(&tmsID, "tmsid", "", "Gracenote TMS identifier of the content")
	flags.BoolVar(&showUnavailable, "show-unavailable", false, "Include results not available on installed channels")
	flags.BoolVar(&matchAny, "match-any", false, "Match any keyword instead of all")
	return cmd
}
