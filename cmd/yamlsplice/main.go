package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kevinwang15/yamlsplice"
)

var (
	flagFormat      string
	flagInPlace     bool
	flagConcurrency int
	flagSnippet     bool
	flagKey         bool
	flagFix         bool
	flagFixFormat   string
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("yamlsplice: ")

	if err := newRootCmd().Execute(); err != nil {
		if !strings.HasSuffix(err.Error(), "help requested") {
			log.Fatal(err)
		}
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yamlsplice",
		Short:         "Edit JSON and YAML files without disturbing their formatting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagFormat, "format", "", "document format: json|yaml (default: from file extension)")
	root.PersistentFlags().BoolVarP(&flagInPlace, "in-place", "i", false, "rewrite files instead of printing the result")

	root.AddCommand(replaceCmd(), insertCmd(), patchCmd())
	return root
}

func replaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace FILE POINTER VALUE [POINTER VALUE...]",
		Short: "Replace values (or keys with --key) keeping their quoting",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args)%2 == 0 {
				return errors.New("replace needs FILE followed by POINTER VALUE pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			doc, err := load(file)
			if err != nil {
				return err
			}

			var reqs []yamlsplice.ReplaceRequest
			for i := 1; i+1 < len(args); i += 2 {
				req := yamlsplice.ReplaceRequest{Pointer: args[i], Value: args[i+1], ReplaceKey: flagKey}
				if flagFix {
					fix, err := parseFix(args[i+1])
					if err != nil {
						return fmt.Errorf("value for %s: %w", args[i], err)
					}
					req.Fix = fix
				}
				reqs = append(reqs, req)
			}

			out, err := yamlsplice.Replace(doc, reqs...)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			return emit(cmd, file, out)
		},
	}
	cmd.Flags().BoolVar(&flagKey, "key", false, "rename the member keys instead of replacing values")
	cmd.Flags().BoolVar(&flagFix, "fix", false, "treat each VALUE as structured data instead of a literal")
	cmd.Flags().StringVar(&flagFixFormat, "fix-format", "yaml", "syntax of structured values: json|yaml")
	return cmd
}

func insertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert FILE POINTER FIX",
		Short: "Append members to a mapping or an element to a sequence",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, ptr := args[0], args[1]
			doc, err := load(file)
			if err != nil {
				return err
			}
			fix, err := parseFix(args[2])
			if err != nil {
				return err
			}

			res, err := yamlsplice.Insert(doc, ptr, fix)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if flagSnippet {
				fmt.Fprintf(cmd.OutOrStdout(), "%d:%d\n%s\n", res.Position.Line, res.Position.Character, res.Snippet)
				return nil
			}
			return emit(cmd, file, res.Apply(doc.Text()))
		},
	}
	cmd.Flags().BoolVar(&flagSnippet, "snippet", false, "print the insert position and snippet text instead of the document")
	cmd.Flags().StringVar(&flagFixFormat, "fix-format", "yaml", "syntax of FIX: json|yaml")
	return cmd
}

func patchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch PATCH FILE...",
		Short: "Apply an RFC 6902 JSON Patch (add, replace, test) to each file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read patch: %w", err)
			}
			files := args[1:]
			results := make([]string, len(files))

			sem := make(chan struct{}, max(1, flagConcurrency))
			g, ctx := errgroup.WithContext(context.Background())
			for i, file := range files {
				g.Go(func() error {
					sem <- struct{}{}
					defer func() { <-sem }()
					if err := ctx.Err(); err != nil {
						return err
					}

					doc, err := load(file)
					if err != nil {
						return err
					}
					out, err := yamlsplice.ApplyJSONPatchBytes(doc, patch)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					if flagInPlace {
						if err := write(file, out); err != nil {
							return err
						}
						log.Printf("patched %s", file)
						return nil
					}
					results[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if !flagInPlace {
				for _, out := range results {
					fmt.Fprint(cmd.OutOrStdout(), out)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", max(2, runtime.NumCPU()), "files patched in parallel")
	return cmd
}

func load(file string) (*yamlsplice.Document, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	format := yamlsplice.FormatForPath(file)
	if flagFormat != "" {
		if format, err = yamlsplice.ParseFormat(flagFormat); err != nil {
			return nil, err
		}
	}
	doc, err := yamlsplice.Parse(src, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return doc, nil
}

func parseFix(text string) (yamlsplice.Fix, error) {
	format, err := yamlsplice.ParseFormat(flagFixFormat)
	if err != nil {
		return nil, err
	}
	return yamlsplice.ParseFix(text, format)
}

func emit(cmd *cobra.Command, file, out string) error {
	if !flagInPlace {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := write(file, out); err != nil {
		return err
	}
	log.Printf("wrote %s", file)
	return nil
}

func write(file, out string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	return os.WriteFile(file, []byte(out), info.Mode().Perm())
}
