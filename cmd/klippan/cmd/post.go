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

	"github.com/go-klippan/klippan/cmd/klippan/errors"
	"github.com/go-klippan/klippan/cmd/klippan/input"
)

type post struct {
	*root
	*input.Input

	doc, compact, bulk *cobra.Command
}

func postCmd(r *root) *cobra.Command {
	c := &post{
		root:    r,
		Input:   input.New(),
		compact: postCompactCmd(r),
	}
	c.doc = postDocCmd(c)
	c.bulk = postBulkCmd(c)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a resource",
		Long:  `Post to the named resource`,
		RunE:  c.RunE,
	}

	c.Input.ConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(c.doc)
	cmd.AddCommand(c.compact)
	cmd.AddCommand(c.bulk)

	return cmd
}

func (c *post) RunE(cmd *cobra.Command, args []string) error {
	if c.conf.HasDoc() {
		_, doc, err := c.conf.DBDoc()
		if err != nil {
			return err
		}
		switch doc {
		case "_compact":
			return c.compact.RunE(cmd, args)
		case "_bulk_docs":
			return c.bulk.RunE(cmd, args)
		}
	}
	if c.conf.HasDB() {
		return c.doc.RunE(cmd, args)
	}
	if _, err := c.client(); err != nil {
		return err
	}
	return errors.Code(errors.ErrUsage, "nothing to post: database required")
}
