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
	"github.com/go-klippan/klippan/cmd/klippan/input"
)

type putDoc struct {
	*root
	*input.Input
}

func putDocCmd(p *put) *cobra.Command {
	c := &putDoc{
		root:  p.root,
		Input: p.Input,
	}
	return &cobra.Command{
		Use:     "document [dsn]/[database]/[document]",
		Aliases: []string{"doc"},
		Short:   "Put a document",
		Long:    `Create or update the named document`,
		RunE:    c.RunE,
	}
}

func (c *putDoc) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db, docID, err := c.conf.DBDoc()
	if err != nil {
		return err
	}
	var content map[string]interface{}
	if err := c.As(&content); err != nil {
		return err
	}
	if docID == "" {
		docID, _ = content["_id"].(string)
	}
	if docID == "" {
		return errors.Code(errors.ErrUsage, "document ID required")
	}
	c.log.Debugf("[put] Will put document: %s/%s/%s", client.DSN(), db, docID)

	// A revision in the content means the document already exists; route the
	// write through the bulk endpoint, which performs the rev match. Without
	// one, this is a create.
	if rev, _ := content["_rev"].(string); rev != "" {
		delete(content, "_id")
		delete(content, "_rev")
		doc := &klippan.Document{ID: docID, Rev: rev, Data: content}
		return c.retry(func() error {
			if _, err := client.DB(db).BulkSave(cmd.Context(), &klippan.Batch{
				Update: []*klippan.Document{doc},
			}); err != nil {
				return err
			}
			return c.fmt.UpdateResult(doc.ID, doc.Rev)
		})
	}

	content["_id"] = docID
	return c.retry(func() error {
		doc, err := client.DB(db).Insert(cmd.Context(), content)
		if err != nil {
			return err
		}
		return c.fmt.UpdateResult(doc.ID, doc.Rev)
	})
}
