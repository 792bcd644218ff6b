package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"posterstudio/internal/config"
	"posterstudio/internal/db"
	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

func init() {
	historyCmd := &cobra.Command{Use: "history", Short: "Saved-design history operations"}

	var profileID, tool string
	historyCmd.PersistentFlags().StringVarP(&profileID, "profile", "p", "", "Profile id (required)")
	historyCmd.PersistentFlags().StringVarP(&tool, "tool", "t", string(domain.ToolBirthPoster), "Customizer tool")
	_ = historyCmd.MarkPersistentFlagRequired("profile")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved designs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), profileID, tool, func(s *history.Store) error {
				return printDesigns(s.Designs(), os.Stdout)
			})
		},
	}
	historyCmd.AddCommand(listCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved designs as a JSON array the importer accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), profileID, tool, func(s *history.Store) error {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s.Designs())
			})
		},
	}
	historyCmd.AddCommand(exportCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved design of the tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), profileID, tool, func(s *history.Store) error {
				n := len(s.Designs())
				if err := s.Clear(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "removed %d designs\n", n)
				return nil
			})
		},
	}
	historyCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(historyCmd)
}

// withHistory opens the configured store and loads one tool's history.
func withHistory(ctx context.Context, profileID, tool string, fn func(*history.Store) error) error {
	if !domain.Tool(tool).Known() {
		return fmt.Errorf("unknown tool %q", tool)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	store, closeStore, err := db.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	log := logger.NewWithWriter(os.Stderr, "posterctl", logLevelFlag)
	s := history.New(kv.Scoped(store, profileID), domain.Tool(tool), log)
	s.Load(ctx)
	return fn(s)
}

func printDesigns(designs []domain.SavedDesign, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tBABIES\tSIZE\tUPDATED")
	for _, d := range designs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, d.Name, d.State.BabyCount, d.State.PosterSize, d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
