package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/format"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
)

var (
	fmtWrite bool
	fmtList  bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format Forth sources",
	Long: `Format Forth sources with the indentation settings of the workspace
configuration. Without files, standard input is formatted to standard output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromWorkspace(root)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			src, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), format.Source(string(src), cfg.Format))
			return err
		}
		for _, path := range args {
			if err := formatFile(cmd.OutOrStdout(), path, cfg.Format); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write the result to the source file instead of standard output")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false, "list files whose formatting differs")
	rootCmd.AddCommand(fmtCmd)
}

func formatFile(w io.Writer, path string, cfg config.FormatConfig) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out := []byte(format.Source(string(src), cfg))
	changed := !bytes.Equal(src, out)
	if fmtList && changed {
		fmt.Fprintln(w, path)
	}
	if fmtWrite {
		if !changed {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		return renameio.WriteFile(path, out, info.Mode().Perm())
	}
	if !fmtList {
		_, err = w.Write(out)
	}
	return err
}
