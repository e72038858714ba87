package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device mode, supplies and fault line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode:      %s\n", d.Mode())
		fmt.Fprintf(out, "crc:       %v\n", d.CRCEnabled())

		fb, err := d.ReadSupplyFeedback()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "vbat:      %d mV\n", fb.VBat_mV)
		fmt.Fprintf(out, "vio:       %d mV\n", fb.VIO_mV)
		fmt.Fprintf(out, "vdd:       %d mV\n", fb.VDD_mV)

		active, err := d.FaultPinActive()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "fault pin: %v\n", active)

		any, err := d.HasAnyFault()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "latches:   %v\n", any)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
