package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classdump/classfile"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version <major>",
		Short: "Print the Java release for a class file major version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			major, err := strconv.ParseUint(args[0], 10, 16)
			if err != nil {
				return fmt.Errorf("parse major version: %w", err)
			}
			name, err := classfile.VersionName(uint16(major))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
