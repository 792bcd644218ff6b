package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/poster"
	"posterstudio/internal/render"
)

type renderOptions struct {
	mode          string
	illustrations string
	locale        string
	timeout       time.Duration
}

func init() {
	var (
		statePath string
		outPath   string
		opts      renderOptions
	)
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a poster state to an image file",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(statePath)
			if err != nil {
				return err
			}
			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()
			return runRender(cmd.Context(), state, opts, out)
		},
	}
	renderCmd.Flags().StringVarP(&statePath, "state", "s", "", "Path to a poster state JSON file, - for stdin (required)")
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output image path (required)")
	renderCmd.Flags().StringVarP(&opts.mode, "mode", "m", "preview", "preview, thumbnail or print")
	renderCmd.Flags().StringVar(&opts.illustrations, "illustrations", "", "Base URL of illustration images")
	renderCmd.Flags().StringVar(&opts.locale, "locale", "es", "Language of the printed text")
	renderCmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Image fetch timeout")
	_ = renderCmd.MarkFlagRequired("state")
	_ = renderCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(renderCmd)

	textCmd := &cobra.Command{
		Use:   "text",
		Short: "Print the poster's text lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(statePath)
			if err != nil {
				return err
			}
			locale, _ := cmd.Flags().GetString("locale")
			return runText(state, poster.MatchLocale(locale), os.Stdout)
		},
	}
	textCmd.Flags().StringVarP(&statePath, "state", "s", "", "Path to a poster state JSON file, - for stdin (required)")
	textCmd.Flags().String("locale", "es", "Language of the printed text")
	_ = textCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(textCmd)
}

func runRender(ctx context.Context, state domain.BirthPosterState, opts renderOptions, w io.Writer) error {
	r, err := render.New(render.NewHTTPLoader(opts.timeout), logger.NewWithWriter(os.Stderr, "posterctl", logLevelFlag))
	if err != nil {
		return err
	}
	scene := render.Layout(state, render.LayoutOptions{
		IllustrationBaseURL: opts.illustrations,
		Locale:              poster.MatchLocale(opts.locale),
	})

	var res render.Result
	switch opts.mode {
	case "preview":
		res, err = r.Render(ctx, scene, render.Options{Scale: 1, Format: render.FormatPNG})
	case "thumbnail":
		res, err = r.Thumbnail(ctx, scene, 240)
	case "print":
		if err := poster.Validate(state); err != nil {
			return err
		}
		wCm, hCm, _ := poster.Dimensions(state.PosterSize)
		res, err = r.PosterRender(ctx, scene, wCm, hCm)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(res.Blob)
	return err
}

func runText(state domain.BirthPosterState, locale language.Tag, w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.Join(poster.TextLines(state, locale), "\n"))
	return err
}

// readState loads and normalizes a state file.
func readState(path string) (domain.BirthPosterState, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.BirthPosterState{}, fmt.Errorf("read state: %w", err)
	}
	var state domain.BirthPosterState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.BirthPosterState{}, fmt.Errorf("decode state: %w", err)
	}
	return poster.Normalize(state), nil
}
