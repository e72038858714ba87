package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	wdInterval time.Duration
	wdCount    int
)

var watchdogCmd = &cobra.Command{
	Use:   "watchdog",
	Short: "Reload the SPI watchdog, optionally on a repeating interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		for i := 0; ; i++ {
			if err := d.ReloadWatchdog(); err != nil {
				return err
			}
			if wdCount > 0 && i+1 >= wdCount {
				break
			}
			if wdInterval <= 0 {
				break
			}
			time.Sleep(wdInterval)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "watchdog reloaded")
		return nil
	},
}

func init() {
	watchdogCmd.Flags().DurationVar(&wdInterval, "interval", 0, "repeat interval (0 = reload once)")
	watchdogCmd.Flags().IntVar(&wdCount, "count", 1, "number of reloads when repeating")
	rootCmd.AddCommand(watchdogCmd)
}
