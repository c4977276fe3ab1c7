package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhamidi/classdump/classfile"
	"github.com/dhamidi/classdump/format"
)

func newPrintCmd() *cobra.Command {
	var color string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "print <file.class>",
		Short: "Print the disassembly of a class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			cf, err := classfile.ParseFile(filename)
			if err != nil {
				return fmt.Errorf("parse class file: %w", err)
			}

			// Nothing reaches out unless rendering succeeds.
			out := cmd.OutOrStdout()
			var buf bytes.Buffer
			switch outputFormat {
			case "text":
				profile, err := colorProfile(color, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(&buf, "File: %s\n", filename)
				enc := format.NewDisassemblyEncoder(&buf, format.WithColorProfile(profile))
				if err := enc.Encode(cf); err != nil {
					return fmt.Errorf("print %s: %w", filename, err)
				}
			case "json":
				enc := format.NewJSONEncoder(&buf)
				if err := enc.Encode(cf); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				buf.WriteByte('\n')
			default:
				return fmt.Errorf("unknown format: %s (expected text or json)", outputFormat)
			}
			_, err = buf.WriteTo(out)
			return err
		},
	}

	cmd.Flags().StringVar(&color, "color", "auto", "colorize output (auto, always, never)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	return cmd
}

// colorProfile picks the terminal profile for the --color mode. auto only
// colors a terminal stdout and honors NO_COLOR.
func colorProfile(mode string, w io.Writer) (termenv.Profile, error) {
	switch mode {
	case "never":
		return termenv.Ascii, nil
	case "always":
		return termenv.ANSI256, nil
	case "auto":
		f, ok := w.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) || termenv.EnvNoColor() {
			return termenv.Ascii, nil
		}
		return termenv.ANSI256, nil
	}
	return termenv.Ascii, fmt.Errorf("unknown color mode: %s (expected auto, always, or never)", mode)
}
