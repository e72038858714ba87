package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tle92466-go/drivers/tle92466"
)

func parseChannel(arg string) (uint8, error) {
	ch, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || ch >= tle92466.NumChannels {
		return 0, fmt.Errorf("channel must be 0..%d", tle92466.NumChannels-1)
	}
	return uint8(ch), nil
}

var setCmd = &cobra.Command{
	Use:   "set <channel> <milliamps>",
	Short: "Enter Mission Mode and program a current setpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		mA, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return err
		}

		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := d.SetChannelMode(ch, tle92466.ChModeCurrentControl); err != nil {
			return err
		}
		if err := d.EnterMission(); err != nil {
			return err
		}
		if err := d.SetCurrent_mA(ch, int32(mA)); err != nil {
			return err
		}
		if err := d.EnableChannel(ch); err != nil {
			return err
		}
		got, err := d.GetCurrentSetpoint_mA(ch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ch%d enabled at %d mA\n", ch, got)
		return nil
	},
}

var offCmd = &cobra.Command{
	Use:   "off <channel>",
	Short: "Disable a channel's output stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := d.EnterMission(); err != nil {
			return err
		}
		if err := d.DisableChannel(ch); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ch%d disabled\n", ch)
		return nil
	},
}

var telemetryCmd = &cobra.Command{
	Use:   "telemetry <channel>",
	Short: "Read a channel's feedback registers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		t, err := d.ReadTelemetry(ch)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "avg current: %d mA\n", t.AvgCurrent_mA)
		fmt.Fprintf(out, "duty:        %d.%02d %%\n", t.Duty_0p01pct/100, t.Duty_0p01pct%100)
		fmt.Fprintf(out, "vbat:        %d mV\n", t.VBat_mV)
		fmt.Fprintf(out, "min/max:     %d / %d mA\n", t.MinCurrent_mA, t.MaxCurrent_mA)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(telemetryCmd)
}
