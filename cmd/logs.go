package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"pagepdf/config"
	"pagepdf/logger"
)

var followLogs bool

var logsCmd = &cobra.Command{
	Use:               "logs",
	Short:             "Print the debug log",
	Long:              "Print the debug log kept in the config directory, or follow it with -f.",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, logger.DebugLogFileName)

		if !followLogs {
			f, err := os.Open(path)
			if os.IsNotExist(err) {
				fmt.Println("📭 No debug log yet:", path)
				return nil
			}
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(cmd.OutOrStdout(), f)
			return err
		}

		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to follow %s: %w", path, err)
		}
		defer t.Cleanup()

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case line, ok := <-t.Lines:
				if !ok {
					return t.Err()
				}
				if line.Err != nil {
					return line.Err
				}
				fmt.Fprintln(cmd.OutOrStdout(), line.Text)
			}
		}
	},
}

func init() {
	logsCmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "keep printing new lines as they are written")
}
