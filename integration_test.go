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

package klippan_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-klippan/klippan"
	"github.com/go-klippan/klippan/server"
)

// TestIntegration drives the client against the in-memory server over real
// HTTP, covering the lifecycle of a database and its documents end to end.
func TestIntegration(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(server.New(server.WithCompactDelay(100 * time.Millisecond)))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	client, err := klippan.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if up, err := client.Ping(ctx); err != nil || !up {
		t.Fatalf("server not up: %v", err)
	}
	info, err := client.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.CouchDB != "Welcome" || info.Version != klippan.Version {
		t.Errorf("Unexpected server info: %+v", info)
	}

	if dbs, err := client.AllDBs(ctx); err != nil || len(dbs) != 0 {
		t.Fatalf("Unexpected databases: %v, %v", dbs, err)
	}
	if exists, err := client.DBExists(ctx, "pets"); err != nil || exists {
		t.Fatalf("pets should not exist yet: %v", err)
	}

	uuids, err := client.UUIDs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(uuids) != 2 || uuids[0] == uuids[1] || len(uuids[0]) != 32 {
		t.Errorf("Unexpected uuids: %v", uuids)
	}

	db, err := client.CreateDB(ctx, "pets")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateDB(ctx, "pets"); klippan.HTTPStatus(err) != http.StatusConflict {
		t.Errorf("Unexpected error creating duplicate database: %v", err)
	}
	if exists, err := client.DBExists(ctx, "pets"); err != nil || !exists {
		t.Fatalf("pets should exist: %v", err)
	}
	if dbs, err := client.AllDBs(ctx); err != nil || len(dbs) != 1 || dbs[0] != "pets" {
		t.Fatalf("Unexpected databases: %v, %v", dbs, err)
	}

	cow, err := db.Insert(ctx, map[string]interface{}{"_id": "cow", "feet": 4})
	if err != nil {
		t.Fatal(err)
	}
	if cow.ID != "cow" || !strings.HasPrefix(cow.Rev, "1-") {
		t.Fatalf("Unexpected document: %+v", cow)
	}
	dog, err := db.Insert(ctx, map[string]interface{}{"_id": "dog", "bark": "loud"})
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := db.Get(ctx, "cow")
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Rev != cow.Rev || fetched.Data["feet"] != float64(4) {
		t.Errorf("Unexpected document: %+v", fetched)
	}
	if ghost, err := db.Get(ctx, "ghost"); err != nil || ghost != nil {
		t.Errorf("Unexpected result for missing document: %v, %v", ghost, err)
	}

	stale := *fetched // retains the pre-save revision
	fetched.Data["feet"] = 5
	if err := fetched.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(fetched.Rev, "2-") {
		t.Errorf("Unexpected rev after save: %s", fetched.Rev)
	}
	if err := stale.Save(ctx); klippan.HTTPStatus(err) != http.StatusConflict {
		t.Errorf("Unexpected error saving stale revision: %v", err)
	}

	created, err := db.BulkSave(ctx, &klippan.Batch{
		Insert: []map[string]interface{}{
			{"_id": "chicken", "egg": "white"},
			{"sound": "oink"},
		},
		Update: []*klippan.Document{fetched},
		Delete: []*klippan.Document{dog},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 2 {
		t.Fatalf("Unexpected created count: %d", len(created))
	}
	if created[0].ID != "chicken" || !strings.HasPrefix(created[0].Rev, "1-") {
		t.Errorf("Unexpected created document: %+v", created[0])
	}
	if len(created[1].ID) != 32 || !strings.HasPrefix(created[1].Rev, "1-") {
		t.Errorf("Unexpected created document: %+v", created[1])
	}
	if !strings.HasPrefix(fetched.Rev, "3-") {
		t.Errorf("Update revision not refreshed: %s", fetched.Rev)
	}
	if !dog.Deleted || !strings.HasPrefix(dog.Rev, "2-") {
		t.Errorf("Deletion not reconciled: %+v", dog)
	}
	if doc, err := db.Get(ctx, "dog"); err != nil || doc != nil {
		t.Errorf("Unexpected result for deleted document: %v, %v", doc, err)
	}

	// Documents created through a batch are bound and immediately usable.
	created[0].Data = map[string]interface{}{"egg": "brown"}
	if err := created[0].Save(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(created[0].Rev, "2-") {
		t.Errorf("Unexpected rev after save: %s", created[0].Rev)
	}

	docs, err := db.AllDocs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("Unexpected document count: %d", len(docs))
	}
	ids := make(map[string]bool, len(docs))
	for _, doc := range docs {
		ids[doc.ID] = true
	}
	if !ids["cow"] || !ids["chicken"] {
		t.Errorf("Unexpected document listing: %v", ids)
	}

	if err := fetched.Delete(ctx); err != nil {
		t.Fatal(err)
	}
	if !fetched.Deleted || !strings.HasPrefix(fetched.Rev, "4-") {
		t.Errorf("Unexpected document after delete: %+v", fetched)
	}

	before, err := db.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before.DocCount != 2 || before.DelCount != 2 {
		t.Errorf("Unexpected database info: %+v", before)
	}

	if err := db.CompactWait(ctx); err != nil {
		t.Fatal(err)
	}
	// CompactWait's final poll left a fresh snapshot in the cache.
	after, err := db.InfoCached(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.CompactRunning {
		t.Error("compaction still reported running")
	}
	if after.DiskSize >= before.DiskSize {
		t.Errorf("Unexpected disk size after compaction: %d (was %d)", after.DiskSize, before.DiskSize)
	}

	if err := db.Drop(ctx); err != nil {
		t.Fatal(err)
	}
	if exists, err := client.DBExists(ctx, "pets"); err != nil || exists {
		t.Fatalf("pets should be gone: %v", err)
	}
	err = db.Drop(ctx)
	if klippan.HTTPStatus(err) != http.StatusNotFound {
		t.Errorf("Unexpected error dropping missing database: %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), `database "pets" does not exist`) {
		t.Errorf("Unexpected error message: %v", err)
	}
}
