package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/locator"
	"autolike/internal/domain/ports"
	"autolike/internal/infrastructure/dom/htmldoc"
	"autolike/internal/infrastructure/dom/snapshot"
	"autolike/internal/infrastructure/env"
)

func watchCommand(e *env.EnvService, f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [url]",
		Short: "Open the browser and handle every video you watch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd, e, f, false)
			if err != nil {
				return err
			}
			defer c.Close()

			url := startURL(e, args)
			c.Logger.Info("Task started", "url", url)
			if err := c.Browser.Navigate(cmd.Context(), url); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Watching. Press Ctrl+C to stop.")
			return c.Orchestrator.Watch(cmd.Context())
		},
	}
}

func calibrateCommand(e *env.EnvService, f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate [url]",
		Short: "Capture the like, dislike, channel and comment elements by clicking them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd, e, f, false)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if err := c.Browser.Navigate(ctx, startURL(e, args)); err != nil {
				return err
			}
			if err := c.UI.WaitForUserAction(ctx, "Open a video page with its comments loaded"); err != nil {
				return err
			}

			set, err := c.Calibration.Run(ctx)
			if errors.Is(err, ports.ErrCalibrationAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			printSelectors(set)
			return nil
		},
	}
}

func diagnoseCommand(e *env.EnvService, f *rootFlags) *cobra.Command {
	var shotsDir string
	cmd := &cobra.Command{
		Use:   "diagnose [url]",
		Short: "Check that the required elements resolve on a video page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd, e, f, false)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if err := c.Browser.Navigate(ctx, startURL(e, args)); err != nil {
				return err
			}
			if err := c.UI.WaitForUserAction(ctx, "Open the video page to check"); err != nil {
				return err
			}

			res, err := c.Diagnostic.Run(ctx)
			if err != nil {
				return err
			}
			c.UI.ShowReport(ctx, res.Reports)
			if shotsDir != "" {
				if err := saveScreenshots(shotsDir, res.Reports); err != nil {
					return err
				}
			}
			if !res.OK() {
				c.UI.ShowResult(ctx, fmt.Sprintf("Missing: %v. Run calibrate.", res.Missing()), true)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shotsDir, "screenshots", "", "directory to write element thumbnails to")
	return cmd
}

func snapshotCommand(e *env.EnvService, f *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshot [url]",
		Short: "Save the current page, cleaned, for use with locate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd, e, f, false)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if err := c.Browser.Navigate(ctx, startURL(e, args)); err != nil {
				return err
			}
			if err := c.UI.WaitForUserAction(ctx, "Open the page to save"); err != nil {
				return err
			}

			raw, err := c.Browser.PageHTML(ctx)
			if err != nil {
				return err
			}
			cleaned, err := snapshot.Clean(raw, nil)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, []byte(cleaned), 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			c.Logger.Info("Snapshot saved", "file", output, "bytes", len(cleaned), "url", c.Browser.CurrentURL())
			c.UI.ShowResult(ctx, "Snapshot saved to "+output, false)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.html", "file to write")
	return cmd
}

func locateCommand() *cobra.Command {
	var pageURL string
	cmd := &cobra.Command{
		Use:   "locate <html-file> <css>",
		Short: "Generate the stable locator for an element of a saved page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer file.Close()

			doc, err := htmldoc.Parse(file, pageURL, htmldoc.WithoutVisibilityAPI())
			if err != nil {
				return err
			}
			matches, err := doc.QuerySelectorAll(args[1])
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no element matches %q", args[1])
			}

			gen := locator.NewGenerator(doc)
			out := cmd.OutOrStdout()
			for _, el := range matches {
				fmt.Fprintf(out, "%s\t%s\n", gen.Generate(el), locator.FullXPath(el))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "https://www.youtube.com/", "URL the snapshot was saved from")
	return cmd
}

func statsCommand(e *env.EnvService, f *rootFlags) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counters and the recent history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd, e, f, true)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if reset {
				if err := c.Store.ResetStats(ctx); err != nil {
					return err
				}
			}
			stats, err := c.Store.Stats(ctx)
			if err != nil {
				return err
			}
			history, err := c.Store.History(ctx)
			if err != nil {
				return err
			}
			renderStats(stats, history)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "zero the counters first")
	return cmd
}

func renderStats(stats entity.Stats, history []entity.HistoryEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Total", "Auto", "Manual", "Skipped"})
	t.AppendRow(table.Row{stats.Total, stats.Auto, stats.Manual, stats.Skipped})
	t.Render()

	if len(history) == 0 {
		return
	}
	const titleWidth = 50
	h := table.NewWriter()
	h.SetOutputMirror(os.Stdout)
	h.SetStyle(table.StyleRounded)
	h.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: titleWidth}})
	h.AppendHeader(table.Row{"When", "Action", "Channel", "Title", "Video"})
	for _, entry := range history {
		h.AppendRow(table.Row{
			entry.Timestamp.Local().Format("2006-01-02 15:04"),
			entry.Action,
			entry.ChannelName,
			strings.TrimSpace(entry.VideoTitle),
			entry.VideoID,
		})
	}
	h.AppendFooter(table.Row{"", "", "", "Entries", len(history)})
	fmt.Fprintf(os.Stdout, "\nHistory:\n")
	h.Render()
}

func printSelectors(set entity.SelectorSet) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Role", "Locator"})
	for _, role := range entity.Roles {
		loc, _ := set.Get(role)
		t.AppendRow(table.Row{role, loc})
	}
	t.Render()
}

func saveScreenshots(dir string, reports []entity.RoleReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	for _, r := range reports {
		if r.Screenshot == nil {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", r.Role, r.Screenshot.Format))
		if err := os.WriteFile(path, r.Screenshot.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
