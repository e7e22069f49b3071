package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
	"github.com/bluelink-community/vehicle-connect/pkg/cli"
	"github.com/bluelink-community/vehicle-connect/pkg/manager"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandLineArgs = errors.New("invalid command line arguments")
)

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error

type Command struct {
	help     string
	args     []Argument
	optional []Argument
	handler  Handler
}

// Usage prints a command's synopsis and argument descriptions.
func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	for _, arg := range c.optional {
		fmt.Printf(" [%s]", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	fmt.Printf("\n%s\n", c.help)
	for _, arg := range append(c.args, c.optional...) {
		fmt.Printf("  %s%s %s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

var commands = map[string]*Command{
	"list": {
		help: "List vehicles registered to the account",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			if err := vm.UpdateAllVehiclesWithCachedState(ctx); err != nil {
				return err
			}
			for _, v := range vm.Vehicles() {
				fmt.Printf("%s\t%s\t%s\n", v.VIN, v.Name(), v.Type)
			}
			return nil
		},
	},
	"status": {
		help: "Show cached vehicle status",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			if err := vm.UpdateAllVehiclesWithCachedState(ctx); err != nil {
				return err
			}
			return printStatus(vm, config.VIN)
		},
	},
	"status-refresh": {
		help: "Force a live status refresh and show it",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			if err := vm.UpdateVehicleWithLatestState(ctx, config.VIN); err != nil {
				return err
			}
			return printStatus(vm, config.VIN)
		},
	},
	"location": {
		help: "Show the vehicle's last known location",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			if err := vm.UpdateVehicleWithLatestState(ctx, config.VIN); err != nil {
				return err
			}
			v, err := vm.GetVehicle(config.VIN)
			if err != nil {
				return err
			}
			location, ok := v.Status.Location()
			if !ok {
				return errors.New("location data not available")
			}
			fmt.Printf("lat=%f lon=%f alt=%f (%s)\n", location.Latitude, location.Longitude, location.Altitude, location.LastUpdated)
			return nil
		},
	},
	"lock": {
		help: "Lock the vehicle's doors",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return runAction(vm.Lock(ctx, config.VIN))
		},
	},
	"unlock": {
		help: "Unlock the vehicle's doors",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return runAction(vm.Unlock(ctx, config.VIN))
		},
	},
	"climate-start": {
		help: "Start climate preconditioning",
		args: []Argument{
			{name: "TEMP", help: "Cabin temperature in °C (16-30)"},
		},
		optional: []Argument{
			{name: "FLAGS", help: "Comma-separated: defrost, no-heating, no-climate"},
		},
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			temperature, err := strconv.ParseFloat(args["TEMP"], 64)
			if err != nil || temperature < 16 || temperature > 30 {
				return fmt.Errorf("%w: temperature must be a number between 16 and 30", ErrCommandLineArgs)
			}
			opts := bluelink.ClimateOptions{Temperature: temperature, Climate: true, Heating: true}
			for _, flag := range strings.Split(args["FLAGS"], ",") {
				switch strings.TrimSpace(flag) {
				case "":
				case "defrost":
					opts.Defrost = true
				case "no-heating":
					opts.Heating = false
				case "no-climate":
					opts.Climate = false
				default:
					return fmt.Errorf("%w: unrecognized flag '%s'", ErrCommandLineArgs, flag)
				}
			}
			return runAction(vm.StartClimate(ctx, config.VIN, opts))
		},
	},
	"climate-stop": {
		help: "Stop climate preconditioning",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return runAction(vm.StopClimate(ctx, config.VIN))
		},
	},
	"charge-start": {
		help: "Start charging (EV/PHEV)",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return runAction(vm.StartCharge(ctx, config.VIN))
		},
	},
	"charge-stop": {
		help: "Stop charging (EV/PHEV)",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return runAction(vm.StopCharge(ctx, config.VIN))
		},
	},
	"save-credentials": {
		help: "Store the configured password and PIN in the system keyring",
		handler: func(ctx context.Context, vm *manager.Manager, config *cli.Config, args map[string]string) error {
			return config.SaveCredentials()
		},
	},
}

func runAction(actionID string, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("Accepted (action id %s)\n", actionID)
	return nil
}

func printStatus(vm *manager.Manager, vin string) error {
	v, err := vm.GetVehicle(vin)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", v.Name(), v.VIN)
	if soc, ok := v.Status.SoC(); ok {
		fmt.Printf("  SoC:      %.0f%%\n", soc)
	}
	if drivingRange, ok := v.Status.DrivingRange(); ok {
		fmt.Printf("  Range:    %.0f km\n", drivingRange)
	}
	if odometer, ok := v.Status.OdometerKm(); ok {
		fmt.Printf("  Odometer: %.1f km\n", odometer)
	}
	if v.Status != nil {
		fmt.Printf("  Locked:   %t\n", v.Status.Status.DoorLock)
	}
	if !v.UpdatedAt.IsZero() {
		fmt.Printf("  Updated:  %s\n", v.UpdatedAt)
	}
	return nil
}

// execute parses positional arguments against the command's declaration and invokes its
// handler.
func execute(ctx context.Context, vm *manager.Manager, config *cli.Config, args []string) error {
	if len(args) == 0 {
		return ErrUnknownCommand
	}
	info, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	args = args[1:]
	if len(args) < len(info.args) || len(args) > len(info.args)+len(info.optional) {
		return fmt.Errorf("%w: expected %d argument(s)", ErrCommandLineArgs, len(info.args))
	}

	named := make(map[string]string)
	for i, argInfo := range info.args {
		named[argInfo.name] = args[i]
	}
	for i, argInfo := range info.optional {
		index := len(info.args) + i
		if index >= len(args) {
			break
		}
		named[argInfo.name] = args[index]
	}
	return info.handler(ctx, vm, config, named)
}
