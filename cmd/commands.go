package main

import (
	"errors"
	"fmt"
	"github.com/maxaizer/jobs-finder/internal/bot"
	"github.com/maxaizer/jobs-finder/internal/config"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/metrics"
	"github.com/maxaizer/jobs-finder/internal/notifier"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"strings"
)

const cliOwner = "cli"

func newRootCommand() *cobra.Command {

	var cfg *config.Config

	root := &cobra.Command{
		Use:          "jobs-finder",
		Short:        "Swiss job search with watches and favorites",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg = config.Get()
			logger.Setup(cmd.Context(), cfg.Logger)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Cleanup()
		},
	}

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, cfg)
		},
	}
	root.RunE = botCmd.RunE

	var canton string

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search once and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, cfg, strings.Join(args, " "), canton)
		},
	}
	searchCmd.Flags().StringVar(&canton, "canton", "", "canton code, e.g. ZH")

	watchCmd := &cobra.Command{
		Use:   "watch <query>",
		Short: "Watch a search and print new listings until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, cfg, strings.Join(args, " "), canton)
		},
	}
	watchCmd.Flags().StringVar(&canton, "canton", "", "canton code, e.g. ZH")

	favoritesCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Print locally stored favorites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFavorites(cmd, cfg)
		},
	}

	root.AddCommand(botCmd, searchCmd, watchCmd, favoritesCmd)
	return root
}

func runBot(cmd *cobra.Command, cfg *config.Config) error {

	if cfg.Bot.Token == "" {
		return errors.New("missing variable: bot token")
	}

	metrics.StartMetricsServer(cfg.Metrics.Port)

	a := newApp(cmd.Context(), cfg)
	defer a.Close()

	deps := bot.Dependencies{Workspaces: a.workspaces, Store: a.store}
	if a.drafter != nil {
		deps.Drafter = a.drafter
	}

	tgbot, err := bot.NewBot(cfg.Bot.Token, a.bus, deps)
	if err != nil {
		log.Errorf("can't create bot: %v", err)
		return err
	}
	go tgbot.Run()

	<-cmd.Context().Done()

	log.Info("Shutting down services...")
	tgbot.Stop()
	log.Info("Services stopped.")
	return nil
}

func runSearch(cmd *cobra.Command, cfg *config.Config, query, canton string) error {

	a := newApp(cmd.Context(), cfg)
	defer a.Close()

	listings, err := a.workspaces.Get(cliOwner).Session.Search(cmd.Context(), query, canton, true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, listing := range listings {
		_, _ = fmt.Fprintf(out, "%d. [%s] %s\n   %s\n", i+1, listing.Source, listingSummary(listing), listing.URL)
	}
	_, _ = fmt.Fprintf(out, "%d listings\n", len(listings))
	return nil
}

func runWatch(cmd *cobra.Command, cfg *config.Config, query, canton string) error {

	a := newApp(cmd.Context(), cfg)
	defer a.Close()

	workspace := a.workspaces.Get(cliOwner)

	listings, err := workspace.Session.Search(cmd.Context(), query, canton, true)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d listings now, watching every %v\n", len(listings), cfg.Watch.Interval)

	filter := workspace.Seen.KeyFor(query, canton)
	watch, err := workspace.Watcher.Start(cliOwner, func() models.FilterKey { return filter },
		notifier.NewConsole(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	<-cmd.Context().Done()
	workspace.Watcher.Stop(watch)
	return nil
}

func runFavorites(cmd *cobra.Command, cfg *config.Config) error {

	a := newApp(cmd.Context(), cfg)
	defer a.Close()

	out := cmd.OutOrStdout()
	entries := a.workspaces.Get(cliOwner).Favorites.List()
	for i, entry := range entries {
		_, _ = fmt.Fprintf(out, "%d. [%s] %s\n   %s\n", i+1, entry.Source, entry.Title, entry.URL)
	}
	_, _ = fmt.Fprintf(out, "%d favorites\n", len(entries))
	return nil
}

func listingSummary(listing models.Listing) string {
	parts := []string{listing.Title}
	if listing.Company != "" {
		parts = append(parts, listing.Company)
	}
	if listing.Location != "" {
		parts = append(parts, listing.Location)
	}
	if listing.RegionCode != "" {
		parts = append(parts, listing.RegionCode)
	}
	return strings.Join(parts, ", ")
}
