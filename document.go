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
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-klippan/klippan/internal"
	"github.com/go-klippan/klippan/transport"
)

// Document represents a single document. The ID and Rev fields mirror the
// last server-acknowledged state; Data holds the document content, which may
// be mutated freely between writes. Methods that persist a change refresh
// Rev in place, so a caller-held reference always reflects the latest
// acknowledged revision.
//
// A Document is not safe for concurrent use. In particular, a Document
// included in concurrent bulk calls is mutated without synchronization.
type Document struct {
	ID      string                 `json:"_id,omitempty"`
	Rev     string                 `json:"_rev,omitempty"`
	Deleted bool                   `json:"_deleted,omitempty"`
	Data    map[string]interface{} `json:"-"`

	db *DB
}

// MarshalJSON satisfies the json.Marshaler interface. The content in Data is
// flattened into the same object as the metadata fields.
func (d *Document) MarshalJSON() ([]byte, error) {
	doc, err := json.Marshal(*d)
	if err != nil {
		return nil, err
	}
	if len(d.Data) == 0 {
		return doc, nil
	}
	data, err := json.Marshal(d.Data)
	if err != nil {
		return nil, err
	}
	if len(doc) == 2 { // no metadata fields were emitted
		return data, nil
	}
	doc[len(doc)-1] = ','
	return append(doc, data[1:]...), nil
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
func (d *Document) UnmarshalJSON(p []byte) error {
	type internalDoc Document
	doc := &internalDoc{}
	if err := json.Unmarshal(p, &doc); err != nil {
		return err
	}
	data := make(map[string]interface{})
	if err := json.Unmarshal(p, &data); err != nil {
		return err
	}
	delete(data, "_id")
	delete(data, "_rev")
	delete(data, "_deleted")
	*d = Document(*doc)
	d.Data = data
	return nil
}

// Save persists the document's current content, refreshing Rev in place on
// success. The document must have been produced by a DB, and must carry an
// ID. A document whose ID is unused on the server saves as a create; the
// server rejects a stale Rev with a conflict.
func (d *Document) Save(ctx context.Context) error {
	if err := d.bound(); err != nil {
		return err
	}
	if d.ID == "" {
		return missingArg("docID")
	}
	var result struct {
		Rev string `json:"rev"`
	}
	opts := &transport.Options{JSON: d}
	if err := d.db.client.transport.DoJSON(ctx, http.MethodPut, d.db.path(transport.EncodeDocID(d.ID)), opts, &result); err != nil {
		return err
	}
	d.Rev = result.Rev
	return nil
}

// Delete removes the document from its database, refreshing Rev and setting
// Deleted on success. The server rejects the call with a conflict if Rev is
// not the document's current revision.
func (d *Document) Delete(ctx context.Context) error {
	if err := d.bound(); err != nil {
		return err
	}
	if d.ID == "" {
		return missingArg("docID")
	}
	if d.Rev == "" {
		return missingArg("rev")
	}
	var result struct {
		Rev string `json:"rev"`
	}
	opts := &transport.Options{Query: url.Values{"rev": {d.Rev}}}
	if err := d.db.client.transport.DoJSON(ctx, http.MethodDelete, d.db.path(transport.EncodeDocID(d.ID)), opts, &result); err != nil {
		return err
	}
	d.Rev = result.Rev
	d.Deleted = true
	return nil
}

func (d *Document) bound() error {
	if d.db == nil {
		return &internal.Error{Status: http.StatusBadRequest, Message: "klippan: document not associated with a database"}
	}
	return nil
}
