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
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/go-klippan/klippan/internal"
	"github.com/go-klippan/klippan/transport"
)

// compactPollDelay is the fixed interval between compaction-status polls in
// [DB.CompactWait].
const compactPollDelay = 250 * time.Millisecond

// DB is a handle to a named database. It routes document operations, and
// holds the most recently fetched metadata snapshot, which is never
// refreshed implicitly.
type DB struct {
	client *Client
	name   string
	err    error

	mu   sync.Mutex
	info *DBInfo
}

// DBInfo is a database metadata snapshot.
type DBInfo struct {
	DocCount       int64 `json:"doc_count"`
	DelCount       int64 `json:"doc_del_count"`
	DiskSize       int64 `json:"disk_size"`
	CompactRunning bool  `json:"compact_running"`
}

// Name returns the database name as passed when creating the handle.
func (db *DB) Name() string {
	return db.name
}

// Err returns the error, if any, that occurred while creating the handle.
// The same error is returned by every method on an invalid handle.
func (db *DB) Err() error {
	return db.err
}

func (db *DB) path(path string) string {
	if path == "" {
		return "/" + url.PathEscape(db.name)
	}
	return "/" + url.PathEscape(db.name) + "/" + strings.TrimPrefix(path, "/")
}

// Insert stores content as a new document. If content carries an "_id" key,
// the document is stored under that ID; otherwise the server assigns one.
// The returned Document holds the acknowledged ID and revision, and shares
// no metadata keys with content.
func (db *DB) Insert(ctx context.Context, content map[string]interface{}) (*Document, error) {
	if db.err != nil {
		return nil, db.err
	}
	if content == nil {
		return nil, &internal.Error{Status: http.StatusBadRequest, Message: "klippan: content required"}
	}
	method, path := http.MethodPost, db.path("")
	if raw, ok := content["_id"]; ok {
		id, ok := raw.(string)
		if !ok {
			return nil, &internal.Error{Status: http.StatusBadRequest, Message: "klippan: _id must be a string"}
		}
		if id == "" {
			return nil, missingArg("docID")
		}
		method, path = http.MethodPut, db.path(transport.EncodeDocID(id))
	}
	var result struct {
		ID  string `json:"id"`
		Rev string `json:"rev"`
	}
	opts := &transport.Options{GetBody: transport.BodyEncoder(content)}
	if err := db.client.transport.DoJSON(ctx, method, path, opts, &result); err != nil {
		return nil, err
	}
	data := make(map[string]interface{}, len(content))
	for k, v := range content {
		switch k {
		case "_id", "_rev", "_deleted":
		default:
			data[k] = v
		}
	}
	return &Document{
		ID:   result.ID,
		Rev:  result.Rev,
		Data: data,
		db:   db,
	}, nil
}

// Get fetches the document with the given ID. A missing document is not an
// error: Get returns (nil, nil) when the server reports not found. All other
// failures return an error.
func (db *DB) Get(ctx context.Context, docID string) (*Document, error) {
	if db.err != nil {
		return nil, db.err
	}
	if docID == "" {
		return nil, missingArg("docID")
	}
	doc := new(Document)
	err := db.client.transport.DoJSON(ctx, http.MethodGet, db.path(transport.EncodeDocID(docID)), nil, doc)
	if HTTPStatus(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.db = db
	return doc, nil
}

// AllDocs lists all documents in the database, in server order. Each
// returned Document carries its ID and current revision only; content is
// not fetched.
func (db *DB) AllDocs(ctx context.Context) ([]*Document, error) {
	if db.err != nil {
		return nil, db.err
	}
	var result struct {
		Rows []struct {
			ID    string `json:"id"`
			Value struct {
				Rev string `json:"rev"`
			} `json:"value"`
		} `json:"rows"`
	}
	if err := db.client.transport.DoJSON(ctx, http.MethodGet, db.path("_all_docs"), nil, &result); err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(result.Rows))
	for _, row := range result.Rows {
		docs = append(docs, &Document{
			ID:  row.ID,
			Rev: row.Value.Rev,
			db:  db,
		})
	}
	return docs, nil
}

// Drop deletes the database itself, along with all its documents. Dropping
// a database that does not exist returns an error with status 404, naming
// the database.
func (db *DB) Drop(ctx context.Context) error {
	if db.err != nil {
		return db.err
	}
	return db.client.DestroyDB(ctx, db.name)
}

// Info fetches a fresh metadata snapshot, caches it on the handle, and
// returns it.
func (db *DB) Info(ctx context.Context) (*DBInfo, error) {
	if db.err != nil {
		return nil, db.err
	}
	info := new(DBInfo)
	if err := db.client.transport.DoJSON(ctx, http.MethodGet, db.path(""), nil, info); err != nil {
		return nil, err
	}
	db.mu.Lock()
	cached := *info
	db.info = &cached
	db.mu.Unlock()
	return info, nil
}

// InfoCached returns the cached metadata snapshot if one exists, without a
// request; the snapshot may be arbitrarily stale. When no snapshot has been
// fetched yet, it fetches and caches one as [DB.Info] does.
func (db *DB) InfoCached(ctx context.Context) (*DBInfo, error) {
	if db.err != nil {
		return nil, db.err
	}
	db.mu.Lock()
	cached := db.info
	db.mu.Unlock()
	if cached != nil {
		cp := *cached
		return &cp, nil
	}
	return db.Info(ctx)
}

// Compact requests compaction of the database, returning as soon as the
// server has accepted the request. Compaction continues in the background;
// poll [DB.Info] to observe completion, or use [DB.CompactWait].
func (db *DB) Compact(ctx context.Context) error {
	if db.err != nil {
		return db.err
	}
	_, err := db.client.transport.DoError(ctx, http.MethodPost, db.path("_compact"), nil)
	return err
}

var errCompactRunning = errors.New("klippan: compaction still running")

// CompactWait requests compaction and blocks until the server reports it
// finished, polling a fresh metadata snapshot at a fixed interval. The
// context bounds the wait.
func (db *DB) CompactWait(ctx context.Context) error {
	if err := db.Compact(ctx); err != nil {
		return err
	}
	bo := backoff.WithContext(backoff.NewConstantBackOff(compactPollDelay), ctx)
	return backoff.Retry(func() error {
		info, err := db.Info(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if info.CompactRunning {
			return errCompactRunning
		}
		return nil
	}, bo)
}
