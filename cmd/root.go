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
	"fmt"
	"os"
	"path"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/clients/logs"
	"github.com/mikroscope/console/render"
)

// rootViper represents the configuration shared by every command
var rootViper = viper.New()

const (
	configFileKey          = "config"
	apiOriginKey           = "api_origin"
	configURLKey           = "config_url"
	storeKey               = "store"
	storePathKey           = "store_path"
	redisAddrKey           = "redis_addr"
	redisPrefixKey         = "redis_prefix"
	timeoutKey             = "timeout"
	timezoneKey            = "timezone"
	consoleOutputFormatKey = "console_output"
	logLevelKey            = "log_level"
	logFormatKey           = "log_format"
	logFileKey             = "log_file"

	configName     = ".mikroscope"
	defaultTimeout = 30 * time.Second
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mikroscope",
	Short: "Explore the logs of a mikroscope server",
	PersistentPreRunE: func(_cmd *cobra.Command, _args []string) error {
		return configureLog(rootViper)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	flags.String(configFileKey, "", "config file (default is $HOME/"+configName+".yaml)")

	rootViper.SetDefault(apiOriginKey, logs.DefaultAPIOrigin)
	_ = rootViper.BindEnv(apiOriginKey, "MIKROSCOPE_API_ORIGIN")
	flags.String(apiOriginKey, rootViper.GetString(apiOriginKey), "Origin of the logs API")

	_ = rootViper.BindEnv(configURLKey, "MIKROSCOPE_CONFIG_URL")
	flags.String(configURLKey, "", "URL of a config.json, its apiOrigin overrides --"+apiOriginKey)

	rootViper.SetDefault(storeKey, string(fileStore))
	_ = rootViper.BindEnv(storeKey, "MIKROSCOPE_STORE")
	flags.String(
		storeKey,
		rootViper.GetString(storeKey),
		fmt.Sprintf("Preferences store as one of %v", expectedStoreKinds),
	)

	_ = rootViper.BindEnv(storePathKey, "MIKROSCOPE_STORE_PATH")
	flags.String(storePathKey, "", "Directory of the file and bolt stores (default is $HOME/"+configName+")")

	rootViper.SetDefault(redisAddrKey, "localhost:6379")
	_ = rootViper.BindEnv(redisAddrKey, "MIKROSCOPE_REDIS_ADDR")
	flags.String(redisAddrKey, rootViper.GetString(redisAddrKey), "Address of the redis store")

	rootViper.SetDefault(redisPrefixKey, "mikroscope:")
	_ = rootViper.BindEnv(redisPrefixKey, "MIKROSCOPE_REDIS_PREFIX")
	flags.String(redisPrefixKey, rootViper.GetString(redisPrefixKey), "Prefix of the redis store keys")

	rootViper.SetDefault(timeoutKey, defaultTimeout)
	_ = rootViper.BindEnv(timeoutKey, "MIKROSCOPE_TIMEOUT")
	flags.Duration(timeoutKey, rootViper.GetDuration(timeoutKey), "Timeout of the requests to the logs API")

	rootViper.SetDefault(timezoneKey, "Local")
	_ = rootViper.BindEnv(timezoneKey, "MIKROSCOPE_TIMEZONE")
	flags.String(timezoneKey, rootViper.GetString(timezoneKey), "Timezone of the local date times and labels")

	rootViper.SetDefault(consoleOutputFormatKey, string(render.Text))
	_ = rootViper.BindEnv(consoleOutputFormatKey, "MIKROSCOPE_CONSOLE_OUTPUT")
	flags.String(
		consoleOutputFormatKey,
		rootViper.GetString(consoleOutputFormatKey),
		fmt.Sprintf("Set console output format as one of %v", render.ExpectedFormats),
	)

	rootViper.SetDefault(logLevelKey, logrus.WarnLevel.String())
	_ = rootViper.BindEnv(logLevelKey, "MIKROSCOPE_LOG_LEVEL")
	flags.String(
		logLevelKey,
		rootViper.GetString(logLevelKey),
		fmt.Sprintf("Minimum logging level as one of %v", expectedLogLevels),
	)

	_ = rootViper.BindEnv(logFormatKey, "MIKROSCOPE_LOG_FORMAT")
	flags.String(
		logFormatKey,
		"",
		fmt.Sprintf(
			"Log format as one of %v, default is %q, when a log file is specified it is %q",
			expectedLogFormats, textLogFormat, jsonLogFormat,
		),
	)

	_ = rootViper.BindEnv(logFileKey, "MIKROSCOPE_LOG_FILE")
	flags.String(logFileKey, "", "Log file output")

	// Don't sort alphabetically, keep insertion order
	flags.SortFlags = false

	// Bind "cobra" flags defined in the CLI with viper
	_ = rootViper.BindPFlags(flags)

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(correlationsCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(scopesCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(fixtureServerCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file if set.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if rootViper.GetString(storePathKey) == "" {
		rootViper.SetDefault(storePathKey, path.Join(home, configName))
	}

	if cfgFile := rootViper.GetString(configFileKey); cfgFile != "" {
		// Use config file from the flag.
		rootViper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".mikroscope" (without extension).
		rootViper.AddConfigPath(home)
		rootViper.SetConfigName(configName)
	}

	// If a config file is found, read it in.
	if err := rootViper.ReadInConfig(); err == nil {
		log.WithField("path", rootViper.ConfigFileUsed()).Debug("using config file")
	}
}
