package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tle92466-go/drivers/tle92466"
	"tle92466-go/drivers/tle92466/serialport"
	"tle92466-go/drivers/tle92466/simbus"
)

var (
	portName string
	baudRate int
	useSim   bool
	noCRC    bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "tle92466ctl",
	Short: "Bench tool for the six-channel current driver",
	Long: `tle92466ctl talks to a six-channel low-side current-regulating driver
through a serial SPI bridge, or against the built-in register-level
simulator for protocol work without hardware.

Connection modes:
  Bridge:    --port /dev/ttyACM0 [--baud 115200]
  Simulator: --sim`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "serial bridge device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "baud rate")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "use the built-in device simulator")
	rootCmd.PersistentFlags().BoolVar(&noCRC, "no-crc", false, "bring the device up without frame CRC")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print driver diagnostics")
}

// openDevice brings a device up on the selected transport. The returned
// closer tears the transport down again.
func openDevice(cmd *cobra.Command) (*tle92466.Device, func(), error) {
	var port tle92466.Transport
	switch {
	case useSim:
		port = simbus.New()
	case portName != "":
		port = serialport.New(serialport.Config{
			Name:        portName,
			BaudRate:    baudRate,
			ReadTimeout: time.Second,
		})
	default:
		return nil, nil, errors.New("select a connection with --port or --sim")
	}

	cfg := tle92466.DefaultConfig()
	cfg.CRCEnable = !noCRC
	if verbose {
		out := cmd.ErrOrStderr()
		cfg.Log = func(msg string) { out.Write([]byte(msg + "\n")) }
	}

	d := tle92466.New(port, cfg)
	if err := d.Init(); err != nil {
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
