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

package klippan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-klippan/klippan/internal"
	"github.com/go-klippan/klippan/transport"
)

// Client is a connection handle to a server. It is the factory for DB
// handles, and performs the server-level operations: listing, creating and
// destroying databases, and server introspection.
type Client struct {
	dsn       string
	transport *transport.Client
}

// New establishes a connection handle to the server at dsn. No network
// request is made; a malformed dsn is the only error returned.
func New(dsn string) (*Client, error) {
	return NewWithClient(&http.Client{}, dsn)
}

// NewWithClient is the same as [New], but allows providing a custom
// *http.Client for control over timeouts, proxies, and transports.
func NewWithClient(httpClient *http.Client, dsn string) (*Client, error) {
	t, err := transport.New(httpClient, dsn)
	if err != nil {
		return nil, err
	}
	return &Client{
		dsn:       dsn,
		transport: t,
	}, nil
}

// DSN returns the unparsed DSN used to connect.
func (c *Client) DSN() string {
	return c.dsn
}

// ServerInfo is the server welcome payload returned by [Client.Version].
type ServerInfo struct {
	CouchDB string `json:"couchdb"`
	Version string `json:"version"`
}

// Version returns the server's welcome info, including its version string.
func (c *Client) Version(ctx context.Context) (*ServerInfo, error) {
	info := new(ServerInfo)
	if err := c.transport.DoJSON(ctx, http.MethodGet, "/", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Ping returns true if the server is up. It queries the /_up endpoint,
// falling back to HEAD / for servers that predate it.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	_, err := c.transport.DoError(ctx, http.MethodHead, "/_up", nil)
	switch HTTPStatus(err) {
	case http.StatusNotFound, http.StatusBadRequest:
		_, err = c.transport.DoError(ctx, http.MethodHead, "/", nil)
	}
	return err == nil, err
}

// AllDBs returns a list of all databases on the server.
func (c *Client) AllDBs(ctx context.Context) ([]string, error) {
	var allDBs []string
	err := c.transport.DoJSON(ctx, http.MethodGet, "/_all_dbs", nil, &allDBs)
	return allDBs, err
}

// UUIDs returns count server-generated unique identifiers, suitable for use
// as document IDs.
func (c *Client) UUIDs(ctx context.Context, count int) ([]string, error) {
	if count < 1 {
		return nil, &internal.Error{Status: http.StatusBadRequest, Message: "klippan: count must be >= 1"}
	}
	var result struct {
		UUIDs []string `json:"uuids"`
	}
	opts := &transport.Options{
		Query: url.Values{"count": []string{strconv.Itoa(count)}},
	}
	err := c.transport.DoJSON(ctx, http.MethodGet, "/_uuids", opts, &result)
	return result.UUIDs, err
}

// DBExists returns true if the named database exists.
func (c *Client) DBExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, missingArg("name")
	}
	_, err := c.transport.DoError(ctx, http.MethodHead, url.PathEscape(name), nil)
	if HTTPStatus(err) == http.StatusNotFound {
		return false, nil
	}
	return err == nil, err
}

// CreateDB creates a new database with the given name, and returns a handle
// to it. The server responds with a conflict (HTTP 409) if the database
// already exists.
func (c *Client) CreateDB(ctx context.Context, name string) (*DB, error) {
	if name == "" {
		return nil, missingArg("name")
	}
	if _, err := c.transport.DoError(ctx, http.MethodPut, url.PathEscape(name), nil); err != nil {
		return nil, err
	}
	return c.DB(name), nil
}

// DestroyDB deletes the named database and all its documents. Destroying a
// database that does not exist returns an error with status 404, naming the
// database.
func (c *Client) DestroyDB(ctx context.Context, name string) error {
	if name == "" {
		return missingArg("name")
	}
	_, err := c.transport.DoError(ctx, http.MethodDelete, url.PathEscape(name), nil)
	if HTTPStatus(err) == http.StatusNotFound {
		return &internal.Error{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("klippan: database %q does not exist", name),
			Err:     err,
		}
	}
	return err
}

// DB returns a handle to the named database. No network request is made, and
// the database's existence is not verified; an invalid name defers an error
// to the handle's first use.
func (c *Client) DB(name string) *DB {
	db := &DB{
		client: c,
		name:   name,
	}
	if name == "" {
		db.err = missingArg("name")
	}
	return db
}
