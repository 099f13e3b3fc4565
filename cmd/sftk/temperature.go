package main

import (
	"context"

	"github.com/sparkfun/SparkFun-Toolkit/cmd/sftk/console"
	"github.com/sparkfun/SparkFun-Toolkit/devices/bme280"
	"github.com/sparkfun/SparkFun-Toolkit/i2c"
	"github.com/urfave/cli/v2"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read the temperature off a BME280",
	Flags:   busFlags,
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		if bus.Address() == i2c.NoAddress {
			bus.SetAddress(bme280.DefaultAddress)
		}
		s := bme280.New(bus)
		if err := s.Init(ctx); err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		temp, err := s.GetTemperature(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.Printf("%s  %s\n", console.PictoThermometer, console.White(temp))
		return nil
	},
}
