// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/smartprobe/pkg/producers/config"
	"github.com/cobaltcore-dev/smartprobe/pkg/producers/diskhealthmetrics"
)

var configFilePath string

var localProducerCmd = &cobra.Command{
	Use:   "local-producer",
	Short: "Local producer commands",
}

func openReader(ctx context.Context, backend string) (diskhealthmetrics.HealthReader, func() error, error) {
	client, err := setUpClient(ctx, backend)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

var useConfigCmd = &cobra.Command{
	Use:   "use-config",
	Short: "Start local producers using configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := config.NewRunner(openReader)
		cfg, err := config.WatchConfig(configFilePath, runner.Reload)
		if err != nil {
			return err
		}
		if cfg.Global.Backend == "" {
			cfg.Global.Backend = backendName
		}

		var wg sync.WaitGroup

		for _, producer := range cfg.Producers {
			wg.Add(1)
			go runner.StartProducers(cmd.Context(), producer, cfg.Global, &wg)
		}

		wg.Wait()
		return nil
	},
}

func init() {
	useConfigCmd.Flags().StringVar(&configFilePath, "config", "", "Path to configuration file")
	_ = useConfigCmd.MarkFlagRequired("config")
	localProducerCmd.AddCommand(useConfigCmd)

	localProducerCmd.AddCommand(diskHealthMetricsCmd)
}
