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

	"github.com/go-klippan/klippan/internal"
	"github.com/go-klippan/klippan/transport"
)

// Batch collects pending local changes for a single bulk request: content
// records to insert, and known Documents to update or delete. Any of the
// three lists may be empty.
type Batch struct {
	// Insert holds plain content records with no prior identity. A record
	// may carry an explicit "_id" key to request a specific document ID.
	Insert []map[string]interface{}

	// Update holds existing Documents whose Data is to be persisted.
	Update []*Document

	// Delete holds existing Documents to delete.
	Delete []*Document
}

type bulkKind int

const (
	bulkUpdate bulkKind = iota
	bulkDelete
)

// bulkRef correlates a document identity submitted in a bulk request with
// the Document to reconcile when the server acknowledges it.
type bulkRef struct {
	kind bulkKind
	doc  *Document
}

// BulkSave submits every change in batch as one atomic request, and
// reconciles the server's acknowledgements onto the submitted Documents:
// each update's Rev is refreshed in place, each delete's Rev is refreshed
// and its Deleted flag set, and one new Document is created per insert. The
// new Documents are returned in the order the server acknowledged them,
// which is not guaranteed to match the order of batch.Insert.
//
// The whole batch succeeds or fails together. On error no Document is
// mutated and no Document is created; the server applies none of the
// changes. Update entries are deep-copied at submission time, so mutating a
// Document's Data after BulkSave is called cannot corrupt the request.
//
// An empty batch makes no request.
func (db *DB) BulkSave(ctx context.Context, batch *Batch) ([]*Document, error) {
	if db.err != nil {
		return nil, db.err
	}
	if batch == nil {
		return nil, &internal.Error{Status: http.StatusBadRequest, Message: "klippan: batch required"}
	}
	entries, table, err := batch.assemble()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	var result struct {
		NewRevs []struct {
			ID  string `json:"id"`
			Rev string `json:"rev"`
		} `json:"new_revs"`
	}
	opts := &transport.Options{
		GetBody: transport.BodyEncoder(map[string]interface{}{"docs": entries}),
	}
	if err := db.client.transport.DoJSON(ctx, http.MethodPost, db.path("_bulk_docs"), opts, &result); err != nil {
		return nil, err
	}
	if len(result.NewRevs) != len(entries) {
		return nil, &internal.Error{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("klippan: bulk response contains %d acknowledgements for %d documents", len(result.NewRevs), len(entries)),
		}
	}
	created := make([]*Document, 0, len(batch.Insert))
	for _, row := range result.NewRevs {
		ref, ok := table[row.ID]
		if !ok {
			// Not in the correlation table, so this acknowledges an insert.
			created = append(created, &Document{
				ID:  row.ID,
				Rev: row.Rev,
				db:  db,
			})
			continue
		}
		ref.doc.Rev = row.Rev
		if ref.kind == bulkDelete {
			ref.doc.Deleted = true
		}
	}
	return created, nil
}

// assemble builds the combined-request entries and the correlation table.
// All validation happens here, before anything is sent.
func (b *Batch) assemble() ([]interface{}, map[string]bulkRef, error) {
	entries := make([]interface{}, 0, len(b.Insert)+len(b.Update)+len(b.Delete))
	table := make(map[string]bulkRef, len(b.Update)+len(b.Delete))
	for i, content := range b.Insert {
		if content == nil {
			return nil, nil, &internal.Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("klippan: insert entry %d is not a content record", i)}
		}
		if raw, ok := content["_id"]; ok {
			if _, ok := raw.(string); !ok {
				return nil, nil, &internal.Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("klippan: insert entry %d: _id must be a string", i)}
			}
		}
		entries = append(entries, content)
	}
	for i, doc := range b.Update {
		if err := validateBulkDoc(doc, "update", i); err != nil {
			return nil, nil, err
		}
		entry := deepCopyMap(doc.Data)
		entry["_id"] = doc.ID
		entry["_rev"] = doc.Rev
		entries = append(entries, entry)
		table[doc.ID] = bulkRef{kind: bulkUpdate, doc: doc}
	}
	for i, doc := range b.Delete {
		if err := validateBulkDoc(doc, "delete", i); err != nil {
			return nil, nil, err
		}
		entries = append(entries, map[string]interface{}{
			"_id":      doc.ID,
			"_rev":     doc.Rev,
			"_deleted": true,
		})
		table[doc.ID] = bulkRef{kind: bulkDelete, doc: doc}
	}
	return entries, table, nil
}

func validateBulkDoc(doc *Document, op string, i int) error {
	if doc == nil {
		return &internal.Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("klippan: %s entry %d is not an existing document", op, i)}
	}
	if doc.ID == "" || doc.Rev == "" {
		return &internal.Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("klippan: %s entry %d has no acknowledged identity and revision", op, i)}
	}
	return nil
}

// deepCopyMap duplicates m along with all nested maps and slices, so the
// in-flight request cannot observe later mutation of the original.
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+2)
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
