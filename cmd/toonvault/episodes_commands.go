package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"toonvault/internal/manifest"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	episodesCmd := &cobra.Command{
		Use:   "episodes",
		Short: "Inspect ingested episode manifests",
	}

	episodesCmd.AddCommand(newEpisodesListCommand(ctx))
	episodesCmd.AddCommand(newEpisodesShowCommand(ctx))

	return episodesCmd
}

func newEpisodesListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List episode manifests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(store *manifest.Store) error {
				episodes, err := store.List(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list episodes: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(episodes) == 0 {
					fmt.Fprintln(out, "No episodes ingested yet")
					return nil
				}

				rows := make([][]string, 0, len(episodes))
				for _, episode := range episodes {
					rows = append(rows, []string{
						strconv.FormatInt(episode.ID, 10),
						episode.AnimeName,
						fmt.Sprintf("S%02dE%02d", episode.SeasonNumber, episode.EpisodeNumber),
						episode.EpisodeName,
						string(episode.Status),
						strconv.Itoa(len(episode.VideoLinks)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Anime", "Episode", "Title", "Status", "Segments"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of episodes to show (0 shows all)")
	return cmd
}

func newEpisodesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one episode manifest with its published links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid episode id %q", args[0])
			}
			return withStore(ctx, func(store *manifest.Store) error {
				episode, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("fetch episode %d: %w", id, err)
				}

				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Anime", episode.AnimeName},
					{"Episode", fmt.Sprintf("S%02dE%02d", episode.SeasonNumber, episode.EpisodeNumber)},
					{"Title", episode.EpisodeName},
					{"Status", string(episode.Status)},
					{"Thumbnail", episode.ThumbnailLink},
					{"Poster", episode.PosterLink},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

				if len(episode.VideoLinks) > 0 {
					fmt.Fprintln(out, "Segments:")
					for i, link := range episode.VideoLinks {
						fmt.Fprintf(out, "  %4d  %s\n", i+1, link)
					}
				}
				return nil
			})
		},
	}
}

func withStore(ctx *commandContext, fn func(*manifest.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := manifest.Open(cfg)
	if err != nil {
		return fmt.Errorf("open manifest store: %w", err)
	}
	defer store.Close()
	return fn(store)
}
