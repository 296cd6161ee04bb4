package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetravelling"
	"github.com/eringen/spacetravelling/views"
)

var (
	templatesDir string
	staticDir    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site and regenerates pages as they age",
	Long: `The serve command renders pages on demand, keeps each one as a snapshot in
SQLite and regenerates it in the background once it is older than the
revalidate interval. With --templates the page templates are read from a
directory and reloaded whenever they change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := views.Load(templatesDir)
		if err != nil {
			return err
		}
		app := spacetravelling.New(siteConfig, set.ViewFuncs(), spacetravelling.WithStaticDir(staticDir))
		defer app.Close()
		if err := app.Init(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if set.Dir() != "" {
			if err := set.Watch(ctx, app.Logger()); err != nil {
				return fmt.Errorf("watch templates: %w", err)
			}
			fmt.Printf("Watching templates in %s\n", set.Dir())
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		fmt.Fprintln(os.Stderr, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3000)")
	serveCmd.Flags().StringVar(&templatesDir, "templates", "", "directory of page templates to use and watch instead of the built-in ones")
	serveCmd.Flags().StringVar(&staticDir, "static", "public", "directory of static assets served under /public")
	rootCmd.AddCommand(serveCmd)
}
