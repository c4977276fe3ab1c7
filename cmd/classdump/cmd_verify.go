package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classdump/classfile"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file.class>...",
		Short: "Decode class files and check every constant pool reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				cf, err := classfile.ParseFile(filename)
				if err != nil {
					return fmt.Errorf("parse %s: %w", filename, err)
				}
				if err := cf.CheckReferences(); err != nil {
					return fmt.Errorf("verify %s: %w", filename, err)
				}
				name, err := cf.ClassName()
				if err != nil {
					return fmt.Errorf("verify %s: %w", filename, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", filename, name)
			}
			return nil
		},
	}
}
