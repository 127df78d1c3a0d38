package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/objectstore"
	"toonvault/internal/pipeline"
	"toonvault/internal/segmenter"
	"toonvault/internal/uploader"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		animeName   string
		season      int
		episode     int
		episodeName string
		description string
	)

	cmd := &cobra.Command{
		Use:   "ingest <video> <thumbnail> [poster]",
		Short: "Segment and publish a local episode file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := manifest.Open(cfg)
			if err != nil {
				return fmt.Errorf("open manifest store: %w", err)
			}
			defer store.Close()

			objects, err := objectstore.New(cfg)
			if err != nil {
				return fmt.Errorf("init object storage: %w", err)
			}

			seg := segmenter.NewCLI(segmenter.WithBinary(cfg.Segmenter.FFmpegBinary))
			orchestrator := pipeline.New(cfg, store, seg, uploader.New(objects, store, logger), nil, logger)

			req := pipeline.Request{
				AnimeName:     animeName,
				SeasonNumber:  season,
				EpisodeNumber: episode,
				EpisodeName:   episodeName,
				Description:   description,
				Video:         localPayload(args[0]),
				Thumbnail:     localPayload(args[1]),
			}
			if len(args) == 3 {
				req.Poster = localPayload(args[2])
			}

			result, err := orchestrator.Ingest(cmd.Context(), req)
			if err != nil {
				var pipeErr *pipeline.Error
				if errors.As(err, &pipeErr) && pipeErr.EpisodeID > 0 {
					return fmt.Errorf("ingestion failed at %s (manifest %d marked failed): %w",
						pipeErr.Stage, pipeErr.EpisodeID, pipeErr.Cause)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Episode %d ingested: %d segments, %d artifacts published\n",
				result.EpisodeID, result.SegmentCount, result.ArtifactCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&animeName, "anime", "", "Anime series name")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	cmd.Flags().StringVar(&episodeName, "name", "", "Episode title")
	cmd.Flags().StringVar(&description, "description", "", "Episode description")
	_ = cmd.MarkFlagRequired("anime")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("episode")

	return cmd
}

func localPayload(path string) *pipeline.Payload {
	return &pipeline.Payload{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}
