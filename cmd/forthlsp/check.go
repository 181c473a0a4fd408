package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/index"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/resolve"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// errProblems makes the process exit with status 1 without printing an
// error, the problems were printed already.
var errProblems = errors.New("problems found")

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report undefined words and unterminated definitions",
	Long: `Index the given files and directories together and print the diagnostics
the language server would publish for them. Directories are searched for
Forth sources. Without paths the workspace root is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{root}
		}
		cfg, err := config.LoadFromWorkspace(root)
		if err != nil {
			return err
		}
		problems, err := check(cmd.OutOrStdout(), cfg, args)
		if err != nil {
			return err
		}
		if problems > 0 {
			return errProblems
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func exitCode(err error) int {
	if errors.Is(err, errProblems) {
		return 1
	}
	return 2
}

// check indexes the Forth sources under paths and writes their diagnostics
// to w. It returns the number of diagnostics written.
func check(w io.Writer, cfg config.Config, paths []string) (int, error) {
	v, err := vocab.Load(cfg)
	if err != nil {
		return 0, err
	}
	sources, err := collectSources(cfg, paths)
	if err != nil {
		return 0, err
	}

	x := workspace.New(cfg.Policy())
	for _, path := range sources {
		text, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		x.Put(index.New(lsp.URIFromPath(path), 0, string(text)))
	}

	problems := 0
	for _, path := range sources {
		diags, err := resolve.Diagnostics(v, x, lsp.URIFromPath(path), cfg.Diagnostics)
		if err != nil {
			return problems, err
		}
		for _, d := range diags {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
				path, d.Range.Start.Line+1, d.Range.Start.Character+1, severity(d.Severity), d.Message)
			problems++
		}
	}
	return problems, nil
}

func collectSources(cfg config.Config, paths []string) ([]string, error) {
	var sources []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			sources = append(sources, abs)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if file.KindForPath(path, config.FileName, cfg.Workspace.Extensions) != file.Forth {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			sources = append(sources, abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}

func severity(s lsp.DiagnosticSeverity) string {
	switch s {
	case lsp.SeverityError:
		return color.RedString("error")
	case lsp.SeverityWarning:
		return color.YellowString("warning")
	case lsp.SeverityInformation:
		return color.CyanString("info")
	}
	return "hint"
}
