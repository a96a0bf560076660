// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/backends/libsmart"
	"github.com/cobaltcore-dev/smartprobe/pkg/backends/smartctl"
	"github.com/cobaltcore-dev/smartprobe/pkg/device"
	"github.com/cobaltcore-dev/smartprobe/pkg/smart"
)

var (
	v            string
	backendName  string
	extraArgs    []string
	runningInPod bool
)

var rootCmd = &cobra.Command{
	Use:          "smartprobe",
	Short:        "CLI for ATA and SCSI disk health",
	Long:         "A CLI tool to read SMART health reports, run self-tests and monitor the disks of a storage node.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setUpLogs(v); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	runningInPod = checkIfRunningInPod()

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", zerolog.WarnLevel.String(), "Log level (debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", getEnv("SMARTPROBE_BACKEND", "native"), "SMART backend (native, smartctl, libsmart)")
	rootCmd.PersistentFlags().StringArrayVar(&extraArgs, "extra", nil, "Extra backend argument as 'option[=value]', may be repeated")

	if runningInPod {
		log.Info().Msg("running in pod")
	}

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(selfTestCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(techCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(localProducerCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'\n", err)
		stop()
		os.Exit(1)
	}
}

// setUpLogs sets the log output and the log level
func setUpLogs(level string) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel) // Default level
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger() // Default to JSON output
	// log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	return nil
}

func newBackend(name string) (smart.Backend, error) {
	switch name {
	case "", "native":
		return smart.NewNative(device.Open), nil
	case "smartctl":
		return smartctl.New(), nil
	case "libsmart":
		return libsmart.New(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

// setUpClient creates the smart client for the selected backend.
func setUpClient(ctx context.Context, name string) (*smart.Client, error) {
	b, err := newBackend(name)
	if err != nil {
		return nil, err
	}
	return smart.New(ctx, smart.WithBackend(b), smart.WithLogger(log.Logger))
}

// parseExtraArgs turns "-d=sat" into {Option: "-d", Value: "sat"}.
func parseExtraArgs(args []string) []smart.ExtraArg {
	var extra []smart.ExtraArg
	for _, a := range args {
		opt, val, _ := strings.Cut(a, "=")
		if opt == "" {
			continue
		}
		extra = append(extra, smart.ExtraArg{Option: opt, Value: val})
	}
	return extra
}

// checkIfRunningInPod checks if the application is running in a Kubernetes pod
func checkIfRunningInPod() bool {
	if _, err := os.Stat("/run/secrets/kubernetes.io/serviceaccount/ca.crt"); err == nil {
		if _, err := os.Stat("/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
			if _, ok := os.LookupEnv("KUBERNETES_SERVICE_HOST"); ok {
				if _, ok := os.LookupEnv("KUBERNETES_SERVICE_PORT"); ok {
					return true
				}
			}
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
