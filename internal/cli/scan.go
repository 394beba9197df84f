package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/scan"
)

// newScanCmd creates the scan command: discovery only, no registry traffic.
func newScanCmd() *cobra.Command {
	var (
		excludes []string
		ignores  []string
	)

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Print the modules a source tree imports",
		Long: `Walk a source tree and print the sorted, deduplicated set of module names
its JavaScript/TypeScript files import. No registry lookups are made.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			logger := loggerFromContext(c.Context())

			prog := newProgress(logger)
			modules, err := scan.Scan(root, scan.Options{
				ExcludeDirs: excludes,
				Ignore:      ignores,
				Logger:      func(format string, a ...any) { logger.Warnf(format, a...) },
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Found %d modules", len(modules)))

			fmt.Print(renderModules(modules))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "additional directory names to skip")
	cmd.Flags().StringSliceVar(&ignores, "ignore", nil, "module names to ignore")
	return cmd
}
