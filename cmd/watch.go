package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and keep the directive index fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(GetConfig())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		n, err := eng.indexAll(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("indexed %d files, watching for changes (ctrl+c to stop)\n", n)

		// Stop cleanly on interrupt.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		return eng.ws.Watch(ctx, func(path string) {
			if err := eng.indexFile(ctx, path); err != nil {
				// Deleted or unreadable: drop its directives.
				eng.directives.Forget(path)
				cmd.Printf("forgot %s\n", eng.ws.Rel(path))
				return
			}
			directives := eng.directives.Directives(path)
			cmd.Printf("reindexed %s (%d directives)\n", eng.ws.Rel(path), len(directives))
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
