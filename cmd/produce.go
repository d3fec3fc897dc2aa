package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"baytt/internal/app"
	moviesvc "baytt/internal/service/movie"
)

var produceOpts struct {
	title    string
	brief    string
	genre    string
	duration float64
	music    string
}

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Produce one movie synchronously",
	Long: `Run the full pipeline for a single brief in the foreground and print
the result (status, final video URL, assembly status) as JSON.`,
	Example: `  baytt produce --title "Night Shift" --genre noir --duration 2 \
    --brief "A tired detective follows a stranger through a rainy alley"`,
	RunE: runProduce,
}

func init() {
	rootCmd.AddCommand(produceCmd)

	flags := produceCmd.Flags()
	flags.StringVar(&produceOpts.title, "title", "", "movie title")
	flags.StringVar(&produceOpts.brief, "brief", "", "story brief (required)")
	flags.StringVar(&produceOpts.genre, "genre", "drama", "genre")
	flags.Float64Var(&produceOpts.duration, "duration", 1, "target duration in minutes (0-30]")
	flags.StringVar(&produceOpts.music, "music", "", "background music URL")
	_ = produceCmd.MarkFlagRequired("brief")
}

func runProduce(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Pipeline.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble app: %w", err)
	}
	defer application.Close(context.Background())

	m, err := application.Movies.CreateMovie(ctx, &moviesvc.CreateMovieRequest{
		Title:           produceOpts.title,
		Brief:           produceOpts.brief,
		Genre:           produceOpts.genre,
		DurationMinutes: produceOpts.duration,
		MusicURL:        produceOpts.music,
	})
	if err != nil {
		return err
	}

	log.Info().Str("movie_id", m.ID).Msg("production started")
	result, runErr := application.Movies.Produce(ctx, m.ID)
	if result != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return runErr
}
