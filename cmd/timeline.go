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
	"os"
	"time"

	"github.com/openlyinc/pointy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikroscope/console/console"
	"github.com/mikroscope/console/render"
)

// timelineViper represents the configuration of the `mikroscope timeline` command
var timelineViper = viper.New()

const (
	timelineWidthKey  = "width"
	timelineBucketKey = "bucket"
)

// timelineCmd represents the `mikroscope timeline` command
var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render the histogram of the matching entries",
	Args:  cobra.NoArgs,
	RunE: func(_cmd *cobra.Command, _args []string) error {
		consoleOutputFormat, err := retrieveConsoleOutputFormat(rootViper)
		if err != nil {
			return err
		}

		bucket := timelineViper.GetDuration(timelineBucketKey)
		if bucket != 0 && bucket < time.Minute {
			return fmt.Errorf(
				"invalid argument \"--%s\" specified, expected at least one minute",
				timelineBucketKey,
			)
		}

		ctx := contextWithUserTermination(context.Background())
		c, release, err := createConsole(ctx, rootViper)
		if err != nil {
			return err
		}
		defer release()

		if err := hydrateConsole(c, timelineViper); err != nil {
			return err
		}
		if err := fetchPages(ctx, c, timelineViper.GetUint(pagesKey)); err != nil {
			return err
		}
		if bucket != 0 {
			c.SetTimelineBucketOverride(ctx, pointy.Int64(bucket.Milliseconds()))
		}

		tl := c.Timeline(timelineViper.GetInt(timelineWidthKey))
		if consoleOutputFormat != render.Text {
			return render.Serialize(os.Stdout, consoleOutputFormat, tl)
		}
		return render.Timeline(os.Stdout, tl, nil)
	},
}

func init() {
	addQueryFlags(timelineCmd.Flags(), timelineViper)

	flags := timelineCmd.Flags()
	timelineViper.SetDefault(timelineWidthKey, console.DefaultTimelineWidth)
	flags.Int(timelineWidthKey, timelineViper.GetInt(timelineWidthKey), "Plotting width used to fit the bucket size")
	flags.Duration(timelineBucketKey, 0, "Bucket size, fitted to the width when not specified")

	_ = timelineViper.BindPFlags(flags)
}
