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

	"github.com/go-klippan/klippan"

	"github.com/go-klippan/klippan/cmd/klippan/input"
	"github.com/go-klippan/klippan/cmd/klippan/output"
)

type postBulk struct {
	*root
	*input.Input
}

func postBulkCmd(p *post) *cobra.Command {
	c := &postBulk{
		root:  p.root,
		Input: p.Input,
	}
	cmd := &cobra.Command{
		Use:     "bulk [dsn]/[database]",
		Aliases: []string{"bulk-docs"},
		Short:   "Save a batch of documents",
		Long: `Save inserts, updates, and deletes in a single atomic batch.

The input document has up to three keys: "insert", a list of new documents;
"update", a list of existing documents with _id and _rev set; and "delete", a
list of documents to delete, also with _id and _rev set. The whole batch is
applied in one request, and fails as a unit.`,
		RunE: c.RunE,
	}

	return cmd
}

func (c *postBulk) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db, _, err := c.conf.DBDoc()
	if err != nil {
		return err
	}
	var batch struct {
		Insert []map[string]interface{} `json:"insert"`
		Update []*klippan.Document      `json:"update"`
		Delete []*klippan.Document      `json:"delete"`
	}
	if err := c.As(&batch); err != nil {
		return err
	}
	c.log.Debugf("[post] Will bulk save %d inserts, %d updates, %d deletes to: %s/%s",
		len(batch.Insert), len(batch.Update), len(batch.Delete), client.DSN(), db)
	return c.retry(func() error {
		created, err := client.DB(db).BulkSave(cmd.Context(), &klippan.Batch{
			Insert: batch.Insert,
			Update: batch.Update,
			Delete: batch.Delete,
		})
		if err != nil {
			return err
		}

		type row struct {
			ID  string `json:"id"`
			Rev string `json:"rev"`
		}
		result := struct {
			OK       bool  `json:"ok"`
			Inserted []row `json:"inserted,omitempty"`
			Updated  []row `json:"updated,omitempty"`
			Deleted  []row `json:"deleted,omitempty"`
		}{OK: true}
		for _, doc := range created {
			result.Inserted = append(result.Inserted, row{ID: doc.ID, Rev: doc.Rev})
		}
		for _, doc := range batch.Update {
			result.Updated = append(result.Updated, row{ID: doc.ID, Rev: doc.Rev})
		}
		for _, doc := range batch.Delete {
			result.Deleted = append(result.Deleted, row{ID: doc.ID, Rev: doc.Rev})
		}
		return c.fmt.Output(output.JSONReader(result))
	})
}
