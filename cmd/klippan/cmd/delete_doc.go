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

	"github.com/go-klippan/klippan/cmd/klippan/errors"
)

type deleteDoc struct {
	*root

	rev string
}

func deleteDocCmd(r *root) *cobra.Command {
	c := &deleteDoc{
		root: r,
	}
	cmd := &cobra.Command{
		Use:     "document [dsn]/[database]/[document]",
		Aliases: []string{"doc"},
		Short:   "Delete a document",
		Long:    `Delete a document. When no --rev is given, the current revision is fetched first.`,
		RunE:    c.RunE,
	}

	cmd.Flags().StringVarP(&c.rev, "rev", "r", "", "The revision to delete")

	return cmd
}

func (c *deleteDoc) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db, docID, err := c.conf.DBDoc()
	if err != nil {
		return err
	}
	if docID == "" {
		return errors.Code(errors.ErrUsage, "document ID required")
	}
	c.log.Debugf("[delete] Will delete document: %s/%s/%s", client.DSN(), db, docID)
	return c.retry(func() error {
		if c.rev != "" {
			doc := &klippan.Document{ID: docID, Rev: c.rev}
			if _, err := client.DB(db).BulkSave(cmd.Context(), &klippan.Batch{
				Delete: []*klippan.Document{doc},
			}); err != nil {
				return err
			}
			return c.fmt.UpdateResult(doc.ID, doc.Rev)
		}
		doc, err := client.DB(db).Get(cmd.Context(), docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return errors.Codef(errors.ErrNotFound, "document not found: %s", docID)
		}
		if err := doc.Delete(cmd.Context()); err != nil {
			return err
		}
		return c.fmt.UpdateResult(doc.ID, doc.Rev)
	})
}
