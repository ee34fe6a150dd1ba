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
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"
)

type getAllDocs struct {
	*root
}

func getAllDocsCmd(r *root) *cobra.Command {
	g := &getAllDocs{
		root: r,
	}
	return &cobra.Command{
		Use:     "all-docs [dsn]/[database]",
		Aliases: []string{"alldocs", "all"},
		Short:   "List all documents",
		Long:    `Fetch all documents in the database`,
		RunE:    g.RunE,
	}
}

func (c *getAllDocs) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db, _, err := c.conf.DBDoc()
	if err != nil {
		return err
	}
	c.log.Debugf("[get] Will fetch all docs: %s/%s", client.DSN(), db)
	return c.retry(func() error {
		docs, err := client.DB(db).AllDocs(cmd.Context())
		if err != nil {
			return err
		}
		body, err := json.Marshal(docs)
		if err != nil {
			return err
		}
		return c.fmt.Output(bytes.NewReader(body))
	})
}
