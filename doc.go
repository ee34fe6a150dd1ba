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

// Package klippan is a client for CouchDB-style document database servers
// speaking the classic pre-1.0 REST dialect.
//
// A Client connects to a server and hands out DB handles; a DB performs
// database-level operations (create, drop, metadata, compaction) and
// document-level operations (insert, fetch, save, delete, list). Documents
// are shared mutable records: when the server acknowledges a write, the
// library refreshes the revision on the very Document the caller holds.
//
// The centerpiece is [DB.BulkSave], which merges pending inserts, updates,
// and deletes into a single atomic request and fans the server's combined
// response back onto the submitted Documents.
//
// Every error carries an embedded HTTP status, retrievable with
// [HTTPStatus]. The one deliberate exception to error propagation is
// [DB.Get], which reports a missing document as (nil, nil) rather than as
// an error.
package klippan
