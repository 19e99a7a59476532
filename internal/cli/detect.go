package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-asdf/archive"
)

// DetectResult is the verdict for one file.
type DetectResult struct {
	Path string `json:"path"`
	ASDF bool   `json:"asdf"`
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Report which files are ASDF archives",
		Long: `Probe each file and report whether it is an ASDF archive.

Files are probed concurrently. The exit code is 1 when any file is not an
archive.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(rootOpts, args, cmd)
		},
	}
	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func runDetect(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	results, err := detectAll(cmd.Context(), paths)
	if err != nil {
		return formatter.Fail(ExitCommandError, "detect", err)
	}

	negatives := 0
	for _, r := range results {
		if !r.ASDF {
			negatives++
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			verdict := "asdf"
			if !r.ASDF {
				verdict = "not asdf"
			}
			fmt.Fprintf(w, "%s: %s\n", r.Path, verdict)
		}
	}

	if negatives > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files are not ASDF archives", negatives, len(results)))
	}
	return nil
}

// detectAll probes every path with one probe per CPU at a time. Results
// keep the order of paths.
func detectAll(ctx context.Context, paths []string) ([]DetectResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]DetectResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = DetectResult{Path: path, ASDF: archive.IsASDF(path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
