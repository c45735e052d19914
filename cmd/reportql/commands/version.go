package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/reportql/internal/ui"
)

// Version information (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipLoad,
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo(cmd.OutOrStdout())
		},
	}
}

func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "reportql version %s\n", Version)
	ui.KeyValue(w, "  Git Commit", GitCommit)
	ui.KeyValue(w, "  Build Time", BuildTime)
	ui.KeyValue(w, "  Go Version", runtime.Version())
	ui.KeyValue(w, "  OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
}
