package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetravelling"
	"github.com/eringen/spacetravelling/views"
)

var outputDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Exports the site as static files",
	Long: `The build command runs every generation function once and writes the
listing pages, post pages, feed, sitemap and assets to the output directory.
Banner images are downloaded and downscaled into the export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := views.Load(templatesDir)
		if err != nil {
			return err
		}
		app := spacetravelling.New(siteConfig, set.ViewFuncs(), spacetravelling.WithStaticDir(staticDir))
		defer app.Close()

		start := time.Now()
		fmt.Printf("Exporting site to %s...\n", outputDir)
		stats, err := app.Export(cmd.Context(), outputDir)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("Exported %d listing pages, %d posts and %d banners in %s\n",
			stats.ListingPages, stats.Posts, stats.Banners, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&outputDir, "out", "o", "dist", "output directory")
	buildCmd.Flags().StringVar(&templatesDir, "templates", "", "directory of page templates to use instead of the built-in ones")
	buildCmd.Flags().StringVar(&staticDir, "static", "public", "directory of static assets copied into the export")
	rootCmd.AddCommand(buildCmd)
}
