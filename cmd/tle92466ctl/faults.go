package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tle92466-go/drivers/tle92466"
)

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Dump every latched fault and warning",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		rep, err := d.GetAllFaults()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !rep.AnyFault {
			fmt.Fprintln(out, "no faults latched")
			return nil
		}
		printStatus(out, rep.Status)
		for ch, cd := range rep.Channels {
			printChannel(out, ch, cd)
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Write-1-to-clear every fault latch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, done, err := openDevice(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := d.ClearFaults(); err != nil {
			return err
		}
		any, err := d.HasAnyFault()
		if err != nil {
			return err
		}
		if any {
			fmt.Fprintln(cmd.OutOrStdout(), "cleared; some conditions persist and re-latched")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
		}
		return nil
	},
}

func printStatus(out io.Writer, s tle92466.DeviceStatus) {
	flags := []struct {
		name string
		set  bool
	}{
		{"vbat undervolt", s.VBATUndervolt},
		{"vbat overvolt", s.VBATOvervolt},
		{"vio undervolt", s.VIOUndervolt},
		{"vio overvolt", s.VIOOvervolt},
		{"vdd undervolt", s.VDDUndervolt},
		{"vdd overvolt", s.VDDOvervolt},
		{"clock fault", s.ClockFault},
		{"overtemp error", s.OverTempError},
		{"overtemp warning", s.OverTempWarning},
		{"power-on reset", s.PowerOnReset},
		{"reset event", s.ResetEvent},
		{"watchdog error", s.WatchdogError},
		{"regulator fault", s.RegulatorFault},
		{"ecc error", s.ECCError},
	}
	for _, f := range flags {
		if f.set {
			fmt.Fprintf(out, "device: %s\n", f.name)
		}
	}
}

func printChannel(out io.Writer, ch int, c tle92466.ChannelDiagnostics) {
	flags := []struct {
		name string
		set  bool
	}{
		{"overcurrent", c.Overcurrent},
		{"short to ground", c.ShortToGround},
		{"open load", c.OpenLoad},
		{"overtemp", c.OverTemp},
		{"open load or short", c.OpenLoadOrShort},
		{"overtemp warning", c.OverTempWarning},
		{"current low warning", c.CurrentLowWarning},
		{"current high warning", c.CurrentHighWarning},
		{"supply warning", c.SupplyWarning},
	}
	for _, f := range flags {
		if f.set {
			fmt.Fprintf(out, "ch%d: %s\n", ch, f.name)
		}
	}
}

func init() {
	rootCmd.AddCommand(faultsCmd)
	rootCmd.AddCommand(clearCmd)
}
