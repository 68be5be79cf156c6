// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/api"
	"github.com/mikroscope/console/fixture"
	"github.com/mikroscope/console/version"
)

// fixtureServerViper represents the configuration of the `mikroscope fixture-server` command
var fixtureServerViper = viper.New()

const (
	fixtureServerPortKey             = "port"
	fixtureServerEntriesKey          = "entries"
	fixtureServerAdvertisedOriginKey = "advertised_origin"
	defaultFixtureServerPort         = 4310
)

// fixtureServerCmd represents the `mikroscope fixture-server` command
var fixtureServerCmd = &cobra.Command{
	Use:   "fixture-server",
	Short: "Serve the logs API over a fixture file",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		entriesPath := fixtureServerViper.GetString(fixtureServerEntriesKey)
		if entriesPath == "" {
			return fmt.Errorf("missing argument \"--%s\"", fixtureServerEntriesKey)
		}
		entries, err := fixture.LoadEntries(afero.NewOsFs(), entriesPath)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"version": version.Version,
			"hash":    version.Hash,
			"entries": len(entries),
		}).Info("starting the fixture server")

		addr := fmt.Sprintf(":%d", fixtureServerViper.GetUint(fixtureServerPortKey))
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("unable to listen to %q: %w", addr, err)
		}

		server := fixture.New(addr, entries, api.ClientConfig{
			APIOrigin: fixtureServerViper.GetString(fixtureServerAdvertisedOriginKey),
		})

		ctx := contextWithUserTermination(context.Background())
		if err := server.Serve(ctx, listener); err != nil {
			return err
		}
		log.Info("interrupted by user")
		return nil
	},
}

func init() {
	fixtureServerViper.SetDefault(fixtureServerPortKey, defaultFixtureServerPort)
	_ = fixtureServerViper.BindEnv(fixtureServerPortKey, "MIKROSCOPE_FIXTURE_SERVER_PORT")
	fixtureServerCmd.Flags().Uint(
		fixtureServerPortKey,
		fixtureServerViper.GetUint(fixtureServerPortKey),
		"The http port to listen on",
	)

	_ = fixtureServerViper.BindEnv(fixtureServerEntriesKey, "MIKROSCOPE_FIXTURE_SERVER_ENTRIES")
	fixtureServerCmd.Flags().String(
		fixtureServerEntriesKey,
		"",
		"JSON file of the served entries, either a list or an object with an \"entries\" list",
	)

	_ = fixtureServerViper.BindEnv(fixtureServerAdvertisedOriginKey, "MIKROSCOPE_FIXTURE_SERVER_ADVERTISED_ORIGIN")
	fixtureServerCmd.Flags().String(
		fixtureServerAdvertisedOriginKey,
		"",
		"API origin advertised by config.json, empty to let clients use their default",
	)

	// Don't sort alphabetically, keep insertion order
	fixtureServerCmd.Flags().SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = fixtureServerViper.BindPFlags(fixtureServerCmd.Flags())
}
