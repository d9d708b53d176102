package main

import (
	"fmt"

	"mosaic/internal/check"
	"mosaic/internal/config"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check paths...",
	Short: "Validate embedded styles and scripts of files on disk",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Default()
		if settingsFile != "" {
			var err error
			if settings, err = config.LoadFile(settingsFile); err != nil {
				return err
			}
		}

		c, err := check.New(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer c.Close()

		report, err := c.Run(cmd.Context(), args)
		if err != nil {
			return err
		}
		if err := report.Write(cmd.OutOrStdout()); err != nil {
			return err
		}
		if report.Errors > 0 {
			return fmt.Errorf("%d errors, %d warnings in %d files", report.Errors, report.Warnings, report.Files)
		}
		return nil
	},
}
