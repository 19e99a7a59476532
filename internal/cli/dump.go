package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-asdf/hdf5"
)

// DumpOptions holds dump command flags.
type DumpOptions struct {
	*RootOptions
	MaxDepth int
}

// DumpResult is the HDF5 object tree of a file.
type DumpResult struct {
	Path              string     `json:"path"`
	SuperblockVersion int        `json:"superblock_version"`
	Objects           []DumpNode `json:"objects"`
}

// DumpNode is one group or dataset.
type DumpNode struct {
	Path    string     `json:"path"`
	Kind    string     `json:"kind"` // "group" | "dataset" | "error"
	Shape   []uint64   `json:"shape,omitempty"`
	Filters []string   `json:"filters,omitempty"`
	Attrs   []DumpAttr `json:"attrs,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// DumpAttr is one attribute and its decoded value.
type DumpAttr struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the raw HDF5 object tree",
		Long: `Print every group and dataset of an HDF5 file with shapes, filters
and attributes. Works on any HDF5 file, not only ASDF archives.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 20, "maximum group depth to descend")

	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result, err := collectDump(path, opts.MaxDepth)
	if err != nil {
		return formatter.Fail(ExitCommandError, "dump", err)
	}
	formatter.VerboseLog("%d objects in %s", len(result.Objects), path)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return writeDumpText(cmd.OutOrStdout(), result)
}

func depthOf(p string) int {
	if p == "/" {
		return 0
	}
	return strings.Count(p, "/")
}

func collectDump(path string, maxDepth int) (_ *DumpResult, err error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	result := &DumpResult{Path: path, SuperblockVersion: f.Version()}

	err = hdf5.Walk(f.Root(), func(p string, obj any, err error) error {
		depth := depthOf(p)
		if depth > maxDepth {
			return nil
		}
		node := DumpNode{Path: p}
		switch o := obj.(type) {
		case *hdf5.Group:
			node.Kind = "group"
			for _, name := range o.Attrs() {
				node.Attrs = append(node.Attrs, dumpAttr(name, o.Attr(name)))
			}
			if depth == maxDepth {
				result.Objects = append(result.Objects, node)
				return hdf5.SkipGroup
			}
		case *hdf5.Dataset:
			node.Kind = "dataset"
			node.Shape = o.Shape()
			node.Filters = o.Filters()
			for _, name := range o.Attrs() {
				node.Attrs = append(node.Attrs, dumpAttr(name, o.Attr(name)))
			}
		default:
			node.Kind = "error"
			if err != nil {
				node.Error = err.Error()
			}
		}
		result.Objects = append(result.Objects, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func dumpAttr(name string, attr *hdf5.Attribute) DumpAttr {
	if attr == nil {
		return DumpAttr{Name: name}
	}
	v, err := attr.Value()
	if err != nil {
		return DumpAttr{Name: name, Value: fmt.Sprintf("<%v>", err)}
	}
	return DumpAttr{Name: name, Value: v}
}

func writeDumpText(w io.Writer, r *DumpResult) error {
	fmt.Fprintf(w, "Superblock version: %d\n", r.SuperblockVersion)
	for _, n := range r.Objects {
		indent := strings.Repeat("  ", depthOf(n.Path))
		switch n.Kind {
		case "group":
			fmt.Fprintf(w, "%sGroup %q\n", indent, n.Path)
		case "dataset":
			fmt.Fprintf(w, "%sDataset %q shape=%v", indent, n.Path, n.Shape)
			if len(n.Filters) > 0 {
				fmt.Fprintf(w, " filters=%v", n.Filters)
			}
			fmt.Fprintln(w)
		default:
			fmt.Fprintf(w, "%s%q: ERROR %s\n", indent, n.Path, n.Error)
		}
		for _, a := range n.Attrs {
			fmt.Fprintf(w, "%s  @%s = %v\n", indent, a.Name, a.Value)
		}
	}
	return nil
}
