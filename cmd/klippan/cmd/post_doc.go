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

	"github.com/go-klippan/klippan/cmd/klippan/input"
)

type postDoc struct {
	*root
	*input.Input
}

func postDocCmd(p *post) *cobra.Command {
	c := &postDoc{
		root:  p.root,
		Input: p.Input,
	}
	cmd := &cobra.Command{
		Use:     "document [dsn]/[database]",
		Aliases: []string{"doc"},
		Short:   "Create a document",
		Long:    `Create a document with server-assigned ID`,
		RunE:    c.RunE,
	}

	return cmd
}

func (c *postDoc) RunE(cmd *cobra.Command, _ []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db, err := c.conf.DB()
	if err != nil {
		return err
	}
	var content map[string]interface{}
	if err := c.As(&content); err != nil {
		return err
	}
	c.log.Debugf("[post] Will post document to: %s/%s", client.DSN(), db)
	return c.retry(func() error {
		doc, err := client.DB(db).Insert(cmd.Context(), content)
		if err != nil {
			return err
		}
		return c.fmt.UpdateResult(doc.ID, doc.Rev)
	})
}
