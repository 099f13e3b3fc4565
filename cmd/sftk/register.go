package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sparkfun/SparkFun-Toolkit/cmd/sftk/console"
	"github.com/urfave/cli/v2"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read a device register",
	Flags: append([]cli.Flag{
		&cli.UintFlag{Name: "reg", Aliases: []string{"r"}, Required: true, Usage: "register address"},
		&cli.BoolFlag{Name: "reg16", Usage: "treat the register address as 16 bit"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of bytes to read"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		buf := make([]byte, c.Int("count"))
		var n int
		if c.Bool("reg16") {
			n, err = bus.ReadRegister16Bytes(ctx, uint16(c.Uint("reg")), buf)
		} else {
			n, err = bus.ReadRegisterBytes(ctx, uint8(c.Uint("reg")), buf)
		}
		if err != nil {
			if n == 0 {
				return console.Exit(1, "register read error: %s", console.Red(err))
			}
			console.Warnf("partial read (%d of %d bytes): %s", n, len(buf), err)
		}
		console.Print(hex.Dump(buf[:n]))
		return nil
	},
}

var writeCmd = cli.Command{
	Name:  "write",
	Usage: "write a device register",
	Flags: append([]cli.Flag{
		&cli.UintFlag{Name: "reg", Aliases: []string{"r"}, Required: true, Usage: "register address"},
		&cli.BoolFlag{Name: "reg16", Usage: "treat the register address as 16 bit"},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Required: true, Usage: "hex-encoded data bytes"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
	}, busFlags...),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		data, err := hex.DecodeString(c.String("data"))
		if err != nil {
			return console.Exit(1, "invalid data: %s", console.Red(err))
		}
		bus, err := openBus(c)
		if err != nil {
			return console.Exit(1, "bus initialization error: %s", console.Red(err))
		}
		if !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("write % x to register %#x on device %#02x?", data, c.Uint("reg"), bus.Address()))
			if err != nil || answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		if c.Bool("reg16") {
			err = bus.WriteRegister16Bytes(ctx, uint16(c.Uint("reg")), data)
		} else {
			err = bus.WriteRegisterBytes(ctx, uint8(c.Uint("reg")), data)
		}
		if err != nil {
			return console.Exit(1, "register write error: %s", console.Red(err))
		}
		console.PInfof(console.PictoFinish, "wrote %d bytes", len(data))
		return nil
	},
}
