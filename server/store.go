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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// initialDiskSize approximates the file overhead of an empty database.
	initialDiskSize = 4096
	// docOverhead approximates the per-revision file overhead. Every write
	// appends it, mimicking the append-only storage model, so disk_size
	// grows until compaction rewrites the file.
	docOverhead = 64
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// compareStrings collates a and b. Collators are not safe for concurrent
// use, hence the mutex.
func compareStrings(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

func newUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// revision is a parsed revision token of the form <generation>-<id>.
type revision struct {
	gen int
	id  string
}

func (r revision) String() string {
	return strconv.Itoa(r.gen) + "-" + r.id
}

func parseRev(s string) (revision, error) {
	gen, id, found := strings.Cut(s, "-")
	n, err := strconv.Atoi(gen)
	if !found || err != nil || n < 1 || id == "" {
		return revision{}, &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "Invalid rev format"}
	}
	return revision{gen: n, id: id}, nil
}

// record is a single stored document revision. Tombstones carry no body.
type record struct {
	rev  revision
	body map[string]interface{}
	size int64
}

func recordSize(id string, body map[string]interface{}) int64 {
	raw, _ := json.Marshal(body)
	return int64(len(id)+len(raw)) + docOverhead
}

type store struct {
	mu  sync.RWMutex
	dbs map[string]*database
}

func newStore() *store {
	return &store{dbs: make(map[string]*database)}
}

var validDBName = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

func (s *store) create(name string) error {
	if !validDBName.MatchString(name) {
		return &couchError{
			status: http.StatusBadRequest,
			Err:    "illegal_database_name",
			Reason: fmt.Sprintf("Name: '%s'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.", name),
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; ok {
		return errDBExists
	}
	s.dbs[name] = &database{
		docs:       make(map[string]*record),
		tombstones: make(map[string]*record),
		diskSize:   initialDiskSize,
	}
	return nil
}

func (s *store) drop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; !ok {
		return errDBNotFound
	}
	delete(s.dbs, name)
	return nil
}

func (s *store) get(name string) (*database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.dbs[name]
	if !ok {
		return nil, errDBNotFound
	}
	return db, nil
}

func (s *store) exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dbs[name]
	return ok
}

// names returns all database names in collation order.
func (s *store) names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Slice(names, func(i, j int) bool {
		return compareStrings(names[i], names[j]) < 0
	})
	return names
}

// database holds the live documents and tombstones of one database.
type database struct {
	mu         sync.RWMutex
	docs       map[string]*record
	tombstones map[string]*record
	compacting bool
	diskSize   int64
}

type dbInfo struct {
	Name           string `json:"db_name"`
	DocCount       int    `json:"doc_count"`
	DelCount       int    `json:"doc_del_count"`
	DiskSize       int64  `json:"disk_size"`
	CompactRunning bool   `json:"compact_running"`
}

func (d *database) info(name string) *dbInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &dbInfo{
		Name:           name,
		DocCount:       len(d.docs),
		DelCount:       len(d.tombstones),
		DiskSize:       d.diskSize,
		CompactRunning: d.compacting,
	}
}

// get returns the document's content with its metadata fields restored.
func (d *database) get(id string) (map[string]interface{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.docs[id]
	if !ok {
		if _, ok := d.tombstones[id]; ok {
			return nil, errDocDeleted
		}
		return nil, errDocNotFound
	}
	doc := make(map[string]interface{}, len(rec.body)+2)
	doc["_id"] = id
	doc["_rev"] = rec.rev.String()
	for k, v := range rec.body {
		doc[k] = v
	}
	return doc, nil
}

// put stores content under id. An existing document requires a matching
// _rev in content; a new document requires none. Recreating a deleted
// document continues its generation sequence.
func (d *database) put(id string, content map[string]interface{}) (string, error) {
	submitted, err := stringField(content, "_rev")
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var gen int
	cur, exists := d.docs[id]
	switch {
	case exists:
		if submitted == "" {
			return "", errConflict
		}
		parsed, err := parseRev(submitted)
		if err != nil {
			return "", err
		}
		if cur.rev != parsed {
			return "", errConflict
		}
		gen = parsed.gen
	case submitted != "":
		return "", errConflict
	default:
		if tomb, ok := d.tombstones[id]; ok {
			gen = tomb.rev.gen
		}
	}
	rev := revision{gen: gen + 1, id: newUUID()}
	rec := &record{rev: rev, body: stripMeta(content)}
	rec.size = recordSize(id, rec.body)
	delete(d.tombstones, id)
	d.docs[id] = rec
	d.diskSize += rec.size
	return rev.String(), nil
}

// create stores content under its _id, or a freshly generated one.
func (d *database) create(content map[string]interface{}) (string, string, error) {
	id, err := stringField(content, "_id")
	if err != nil {
		return "", "", err
	}
	if id == "" {
		id = newUUID()
	} else if err := validateDocID(id); err != nil {
		return "", "", err
	}
	rev, err := d.put(id, content)
	return id, rev, err
}

// delete turns the identified document into a tombstone. rev must match the
// current revision.
func (d *database) delete(id, rev string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, exists := d.docs[id]
	if !exists {
		if _, ok := d.tombstones[id]; ok {
			return "", errDocDeleted
		}
		return "", errDocNotFound
	}
	if rev == "" {
		return "", errConflict
	}
	parsed, err := parseRev(rev)
	if err != nil {
		return "", err
	}
	if cur.rev != parsed {
		return "", errConflict
	}
	next := revision{gen: parsed.gen + 1, id: newUUID()}
	delete(d.docs, id)
	d.tombstones[id] = &record{rev: next}
	d.diskSize += docOverhead
	return next.String(), nil
}

type docRef struct {
	Rev string `json:"rev"`
}

type allDocsRow struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value docRef `json:"value"`
}

// allDocs returns one row per live document, in collation order.
func (d *database) allDocs() []allDocsRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.docs))
	for id := range d.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return compareStrings(ids[i], ids[j]) < 0
	})
	rows := make([]allDocsRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, allDocsRow{
			ID:    id,
			Key:   id,
			Value: docRef{Rev: d.docs[id].rev.String()},
		})
	}
	return rows
}

// compact rewrites the simulated append-only file down to its live
// contents. The work completes asynchronously after delay, so callers can
// observe compact_running through info.
func (d *database) compact(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.compacting {
		return
	}
	d.compacting = true
	go func() {
		time.Sleep(delay)
		d.mu.Lock()
		defer d.mu.Unlock()
		size := int64(initialDiskSize)
		for _, rec := range d.docs {
			size += rec.size
		}
		size += int64(len(d.tombstones)) * docOverhead
		d.diskSize = size
		d.compacting = false
	}()
}

type bulkAck struct {
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// bulkSave applies every entry or none. All entries are validated under the
// write lock before the first is applied, so a rejected batch leaves the
// database untouched and concurrent writers cannot interleave.
func (d *database) bulkSave(entries []map[string]interface{}) ([]bulkAck, error) {
	type op struct {
		id      string
		gen     int
		body    map[string]interface{}
		deleted bool
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	plan := make([]op, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry == nil {
			return nil, &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "Bulk entries must be JSON objects"}
		}
		id, err := stringField(entry, "_id")
		if err != nil {
			return nil, err
		}
		rev, err := stringField(entry, "_rev")
		if err != nil {
			return nil, err
		}
		deleted, _ := entry["_deleted"].(bool)
		if id == "" {
			if deleted {
				return nil, &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "Deletion entry missing _id"}
			}
			id = newUUID()
		} else if err := validateDocID(id); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, &couchError{status: http.StatusConflict, Err: "conflict", Reason: fmt.Sprintf("Duplicate document ID: %s", id)}
		}
		seen[id] = struct{}{}

		cur, exists := d.docs[id]
		if rev == "" {
			if deleted || exists {
				return nil, errConflict
			}
			gen := 0
			if tomb, ok := d.tombstones[id]; ok {
				gen = tomb.rev.gen
			}
			plan = append(plan, op{id: id, gen: gen + 1, body: stripMeta(entry)})
			continue
		}
		parsed, err := parseRev(rev)
		if err != nil {
			return nil, err
		}
		if !exists || cur.rev != parsed {
			return nil, errConflict
		}
		if deleted {
			plan = append(plan, op{id: id, gen: parsed.gen + 1, deleted: true})
		} else {
			plan = append(plan, op{id: id, gen: parsed.gen + 1, body: stripMeta(entry)})
		}
	}

	acks := make([]bulkAck, 0, len(plan))
	for _, op := range plan {
		rev := revision{gen: op.gen, id: newUUID()}
		if op.deleted {
			delete(d.docs, op.id)
			d.tombstones[op.id] = &record{rev: rev}
			d.diskSize += docOverhead
		} else {
			rec := &record{rev: rev, body: op.body}
			rec.size = recordSize(op.id, rec.body)
			delete(d.tombstones, op.id)
			d.docs[op.id] = rec
			d.diskSize += rec.size
		}
		acks = append(acks, bulkAck{ID: op.id, Rev: rev.String()})
	}
	return acks, nil
}

func stripMeta(content map[string]interface{}) map[string]interface{} {
	body := make(map[string]interface{}, len(content))
	for k, v := range content {
		switch k {
		case "_id", "_rev", "_deleted":
		default:
			body[k] = v
		}
	}
	return body
}

func stringField(doc map[string]interface{}, key string) (string, error) {
	raw, ok := doc[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: fmt.Sprintf("%s must be a string", key)}
	}
	return s, nil
}
