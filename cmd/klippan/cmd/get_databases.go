// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-klippan/klippan"

	"github.com/go-klippan/klippan/cmd/klippan/output"
)

// statsConcurrency caps the parallel per-database info requests made by
// --stats.
const statsConcurrency = 5

type getDatabases struct {
	*root

	stats bool
}

func getDatabasesCmd(r *root) *cobra.Command {
	c := &getDatabases{
		root: r,
	}
	cmd := &cobra.Command{
		Use:     "databases [dsn]",
		Aliases: []string{"dbs", "all-dbs"},
		Short:   "List all databases",
		RunE:    c.RunE,
	}

	cmd.Flags().BoolVar(&c.stats, "stats", false, "Fetch stats for each database")

	return cmd
}

func (c *getDatabases) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	c.conf.Finalize()

	return c.retry(func() error {
		dbs, err := client.AllDBs(cmd.Context())
		if err != nil {
			return err
		}

		if !c.stats {
			return c.fmt.Output(output.JSONReader(dbs))
		}

		type dbStats struct {
			Name string `json:"db_name"`
			*klippan.DBInfo
		}

		stats := make([]dbStats, len(dbs))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(statsConcurrency)
		for i, name := range dbs {
			i, name := i, name
			g.Go(func() error {
				info, err := client.DB(name).Info(ctx)
				if err != nil {
					return err
				}
				stats[i] = dbStats{Name: name, DBInfo: info}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		return c.fmt.Output(output.JSONReader(stats))
	})
}
