package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/bluelink-community/vehicle-connect/internal/log"
	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
	"github.com/bluelink-community/vehicle-connect/pkg/cli"
	"github.com/bluelink-community/vehicle-connect/pkg/manager"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Control commands and vehicle-specific queries require a VIN (-vin or BLUELINK_VIN).
 * Credentials are read from the environment or the system keyring.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(vm *manager.Manager, config *cli.Config, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, vm, config, args); err != nil {
		if bluelink.MayHaveSucceeded(err) {
			writeErr("Couldn't verify success: %s", err)
		} else if errors.Is(err, bluelink.ErrDuplicateRequest) {
			writeErr("A command is already pending for this vehicle; try again shortly")
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(vm *manager.Manager, config *cli.Config, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		runCommand(vm, config, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		commandTimeout time.Duration
		loginTimeout   time.Duration
	)
	config, err := cli.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.DurationVar(&commandTimeout, "command-timeout", 90*time.Second, "Set timeout for commands sent to the vehicle.")
	flag.DurationVar(&loginTimeout, "login-timeout", 30*time.Second, "Set timeout for the initial login.")

	config.RegisterCommandLineFlags()
	flag.Parse()
	if !debug {
		if debugEnv, ok := os.LookupEnv("BLUELINK_VERBOSE"); ok {
			debug = debugEnv != "false" && debugEnv != "0"
		}
	}
	if debug {
		log.SetLevel(log.LevelDebug)
	}
	if err := config.ReadFromEnvironment(); err != nil {
		writeErr("Error reading environment: %s", err)
		return
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "help" {
		if len(args) == 1 {
			Usage()
			status = 0
			return
		}
		info, ok := commands[args[1]]
		if !ok {
			writeErr("Unrecognized command: %s", args[1])
			return
		}
		info.Usage(args[1])
		status = 0
		return
	}

	if err := config.LoadCredentials(); err != nil {
		writeErr("Error loading credentials: %s", err)
		return
	}

	vm, err := config.Manager()
	if err != nil {
		writeErr("Error: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	err = vm.Login(ctx)
	cancel()
	if err != nil {
		writeErr("Login failed: %s", err)
		return
	}
	defer func() {
		if saveErr := config.SaveCache(vm); saveErr != nil {
			writeErr("Failed to export status cache: %s", saveErr)
		}
	}()

	if flag.NArg() > 0 {
		status = runCommand(vm, config, flag.Args(), commandTimeout)
	} else {
		status = runInteractiveShell(vm, config, commandTimeout)
	}
}
