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
)

type get struct {
	databases, db, doc, alldocs, uuids, ver *cobra.Command
	*root
}

func getCmd(r *root) *cobra.Command {
	g := &get{
		root:      r,
		databases: getDatabasesCmd(r),
		db:        getDBCmd(r),
		doc:       getDocCmd(r),
		alldocs:   getAllDocsCmd(r),
		uuids:     getUUIDsCmd(r),
		ver:       getVersionCmd(r),
	}
	cmd := &cobra.Command{
		Use:   "get [command]",
		Short: "Get a resource",
		Long:  `Fetch a resource described by the URL`,
		RunE:  g.RunE,
	}

	cmd.AddCommand(g.databases)
	cmd.AddCommand(g.db)
	cmd.AddCommand(g.doc)
	cmd.AddCommand(g.alldocs)
	cmd.AddCommand(g.uuids)
	cmd.AddCommand(g.ver)

	return cmd
}

func (g *get) RunE(cmd *cobra.Command, args []string) error {
	if g.conf.HasDoc() {
		_, doc, err := g.conf.DBDoc()
		if err != nil {
			return err
		}
		if doc == "_all_docs" {
			return g.alldocs.RunE(cmd, args)
		}
		return g.doc.RunE(cmd, args)
	}
	if g.conf.HasDB() {
		db, err := g.conf.DB()
		if err != nil {
			return err
		}
		switch db {
		case "_all_dbs":
			return g.databases.RunE(cmd, args)
		case "_uuids":
			return g.uuids.RunE(cmd, args)
		}
		return g.db.RunE(cmd, args)
	}
	return g.ver.RunE(cmd, args)
}
