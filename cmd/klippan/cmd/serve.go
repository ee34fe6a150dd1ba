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
	"context"
	stdlog "log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-klippan/klippan/cmd/klippan/errors"
	"github.com/go-klippan/klippan/server"
)

const shutdownTimeout = 5 * time.Second

type serve struct {
	*root

	listen string
}

func serveCmd(r *root) *cobra.Command {
	c := &serve{
		root: r,
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a stand-alone server",
		Long:  `Run a stand-alone, in-memory server instance, for testing and experimentation. Nothing survives a restart.`,
		RunE:  c.RunE,
	}

	cmd.Flags().StringVarP(&c.listen, "listen", "l", ":5984", "Server listen address")

	return cmd
}

func (c *serve) RunE(cmd *cobra.Command, _ []string) error {
	c.conf.Finalize()

	srv := &http.Server{
		Addr:     c.listen,
		Handler:  server.New(),
		ErrorLog: stdlog.New(cmd.ErrOrStderr(), "", stdlog.LstdFlags),
	}

	done := make(chan error, 1)
	go func() {
		<-cmd.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(ctx)
	}()

	c.log.Infof("Listening on %s", c.listen)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return errors.WithCode(err, errors.ErrUnavailable)
	}
	return <-done
}
