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

	"github.com/go-klippan/klippan/cmd/klippan/output"
)

type getUUIDs struct {
	*root

	count int
}

func getUUIDsCmd(r *root) *cobra.Command {
	g := &getUUIDs{
		root: r,
	}
	cmd := &cobra.Command{
		Use:     "uuids [dsn]",
		Aliases: []string{"uuid"},
		Short:   "Get server-generated UUIDs",
		Long:    `Request one or more Universally Unique Identifiers from the server`,
		RunE:    g.RunE,
	}

	cmd.Flags().IntVarP(&g.count, "count", "C", 1, "Number of UUIDs to request")

	return cmd
}

func (c *getUUIDs) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	c.conf.Finalize()
	return c.retry(func() error {
		uuids, err := client.UUIDs(cmd.Context(), c.count)
		if err != nil {
			return err
		}
		return c.fmt.Output(output.JSONReader(map[string][]string{
			"uuids": uuids,
		}))
	})
}
