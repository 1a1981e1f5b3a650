// Command psuctl sets and reads back channels of a bench power supply from
// the terminal, either interactively or as a one-shot.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/itohio/gopsu/pkg/config"
	"github.com/itohio/gopsu/pkg/supply"
	"github.com/itohio/gopsu/pkg/visa"
)

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		resourceFlag = flag.String("r", "", "VISA resource override (e.g., GPIB0::5::INSTR)")
		mockFlag     = flag.Bool("mock", false, "Use simulated instrument instead of the bus")
		channelFlag  = flag.Int("c", 0, "One-shot mode: channel number (0 = interactive)")
		voltsFlag    = flag.Float64("v", 0, "One-shot mode: voltage (V)")
		ampsFlag     = flag.Float64("a", 0, "One-shot mode: current limit (A)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override resource if provided via command line
	if *resourceFlag != "" {
		cfg.Connection.Resource = *resourceFlag
	}

	opts := []visa.Option{
		visa.WithTimeout(cfg.Connection.Timeout),
		visa.WithAdapterPort(cfg.Connection.AdapterPort),
	}
	if *mockFlag {
		opts = append(opts, visa.WithTransport(visa.NewSim(&cfg.Mock)))
	}

	sess, err := visa.Open(cfg.Connection.Resource, opts...)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.Connection.Resource, err)
	}
	defer closeSession(sess)
	fmt.Printf("Connected to: %s\n", sess.Identity())

	psu := supply.New(sess, cfg.Supply.Channels)

	// Close the session exactly once even when interrupted mid-prompt.
	// Close is idempotent, so racing the deferred call is fine.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nExiting on user interrupt.")
		closeSession(sess)
		os.Exit(0)
	}()

	if *channelFlag > 0 {
		if err := applyAndConfirm(psu, *channelFlag, *voltsFlag, *ampsFlag); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}

	runPrompt(psu)
}

// runPrompt repeatedly asks the operator for a channel, a voltage and a
// current limit, applies them and reads back confirmation. Bad numeric input
// re-prompts without touching the instrument; bus failures are reported and
// the loop continues.
func runPrompt(psu *supply.Supply) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		channel, err := promptInt(scanner, "Enter channel number: ")
		if err == nil {
			var volts, amps float64
			if volts, err = promptFloat(scanner, "Enter desired voltage (V): "); err == nil {
				amps, err = promptFloat(scanner, "Enter current limit (A): ")
			}
			if err == nil {
				if err := applyAndConfirm(psu, channel, volts, amps); err != nil {
					fmt.Printf("Error: %v\n", err)
					fmt.Println()
				}
				continue
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		fmt.Println("Invalid input. Please enter numeric values.")
		fmt.Println()
	}
}

// applyAndConfirm programs a channel and reads back measured voltage and the
// programmed current limit to show what the instrument actually accepted.
func applyAndConfirm(psu *supply.Supply, channel int, volts, amps float64) error {
	if err := psu.Apply(channel, volts, amps); err != nil {
		return err
	}

	measured, err := psu.MeasureVoltage(channel)
	if err != nil {
		return err
	}
	limit, err := psu.CurrentLimit(channel)
	if err != nil {
		return err
	}

	fmt.Printf("\n*** Settings applied to channel %d:\n", channel)
	fmt.Printf("  Measured Voltage: %.3f V\n", measured)
	fmt.Printf("  Programmed Current Limit: %.3f A\n\n", limit)
	return nil
}

func promptInt(scanner *bufio.Scanner, prompt string) (int, error) {
	line, err := promptLine(scanner, prompt)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(line)
}

func promptFloat(scanner *bufio.Scanner, prompt string) (float64, error) {
	line, err := promptLine(scanner, prompt)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(line, 64)
}

func promptLine(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Print(prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// closeSession closes the session, surfacing (but never escalating) teardown
// failures so they can't mask whatever the operator was looking at.
func closeSession(sess *visa.Session) {
	if err := sess.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
}
