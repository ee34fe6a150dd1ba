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
	"fmt"
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestDBPath(t *testing.T) {
	tests := []struct {
		name     string
		dbName   string
		path     string
		expected string
	}{
		{name: "db root", dbName: "testdb", path: "", expected: "/testdb"},
		{name: "subpath", dbName: "testdb", path: "_all_docs", expected: "/testdb/_all_docs"},
		{name: "leading slash", dbName: "testdb", path: "/_compact", expected: "/testdb/_compact"},
		{name: "escaped db name", dbName: "foo/bar", path: "", expected: "/foo%2Fbar"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := &DB{name: test.dbName}
			if result := db.path(test.path); result != test.expected {
				t.Errorf("Unexpected path: %s", result)
			}
		})
	}
}

func TestInsert(t *testing.T) {
	type tt struct {
		db       *DB
		content  map[string]interface{}
		expected *Document
		status   int
		err      string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("nil content", tt{
		db:     newTestDB(nil, errors.New("unexpected request")),
		status: http.StatusBadRequest,
		err:    "klippan: content required",
	})
	tests.Add("non-string _id", tt{
		db:      newTestDB(nil, errors.New("unexpected request")),
		content: map[string]interface{}{"_id": 1234},
		status:  http.StatusBadRequest,
		err:     "klippan: _id must be a string",
	})
	tests.Add("empty _id", tt{
		db:      newTestDB(nil, errors.New("unexpected request")),
		content: map[string]interface{}{"_id": ""},
		status:  http.StatusBadRequest,
		err:     "klippan: docID required",
	})
	tests.Add("network error", tt{
		db:      newTestDB(nil, errors.New("random network error")),
		content: map[string]interface{}{"cow": "moo"},
		status:  http.StatusBadGateway,
		err:     `Post "?http://example.com/testdb"?: random network error`,
	})
	tests.Add("error response", tt{
		db: newTestDB(&http.Response{
			StatusCode: 400,
			Body:       Body(""),
		}, nil),
		content: map[string]interface{}{"cow": "moo"},
		status:  http.StatusBadRequest,
		err:     "Bad Request",
	})
	tests.Add("server-assigned id", func(*testing.T) interface{} {
		db := newCustomDB(func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodPost {
				return nil, fmt.Errorf("Unexpected method: %s", req.Method)
			}
			if req.URL.Path != "/testdb" {
				return nil, fmt.Errorf("Unexpected path: %s", req.URL.Path)
			}
			defer req.Body.Close() // nolint: errcheck
			if d := testy.DiffAsJSON([]byte(`{"cow":"moo"}`), req.Body); d != nil {
				return nil, fmt.Errorf("Unexpected request body: %s", d)
			}
			return &http.Response{
				StatusCode: 201,
				Request:    req,
				Body:       Body(`{"ok":true,"id":"43188f1f84c024028478e45a2b369add","rev":"1-4c6114c65e295552ab1019e2b046b10e"}`),
			}, nil
		})
		return tt{
			db:      db,
			content: map[string]interface{}{"cow": "moo"},
			expected: &Document{
				ID:   "43188f1f84c024028478e45a2b369add",
				Rev:  "1-4c6114c65e295552ab1019e2b046b10e",
				Data: map[string]interface{}{"cow": "moo"},
				db:   db,
			},
		}
	})
	tests.Add("caller-assigned id", func(*testing.T) interface{} {
		db := newCustomDB(func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodPut {
				return nil, fmt.Errorf("Unexpected method: %s", req.Method)
			}
			if req.URL.Path != "/testdb/cow" {
				return nil, fmt.Errorf("Unexpected path: %s", req.URL.Path)
			}
			defer req.Body.Close() // nolint: errcheck
			if d := testy.DiffAsJSON([]byte(`{"_id":"cow","feet":4}`), req.Body); d != nil {
				return nil, fmt.Errorf("Unexpected request body: %s", d)
			}
			return &http.Response{
				StatusCode: 201,
				Request:    req,
				Body:       Body(`{"ok":true,"id":"cow","rev":"1-6e609020e0371257432797b4319c5829"}`),
			}, nil
		})
		return tt{
			db:      db,
			content: map[string]interface{}{"_id": "cow", "feet": 4},
			expected: &Document{
				ID:   "cow",
				Rev:  "1-6e609020e0371257432797b4319c5829",
				Data: map[string]interface{}{"feet": 4},
				db:   db,
			},
		}
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		result, err := tt.db.Insert(context.Background(), tt.content)
		statusErrorRE(t, tt.err, tt.status, err)
		if d := testy.DiffInterface(tt.expected, result); d != nil {
			t.Error(d)
		}
	})
}

func TestGet(t *testing.T) {
	type tt struct {
		db       *DB
		id       string
		expected *Document
		status   int
		err      string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		id:     "foo",
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("no doc id", tt{
		db:     newTestDB(nil, errors.New("unexpected request")),
		status: http.StatusBadRequest,
		err:    "klippan: docID required",
	})
	tests.Add("network error", tt{
		db:     newTestDB(nil, errors.New("random network error")),
		id:     "foo",
		status: http.StatusBadGateway,
		err:    `Get "?http://example.com/testdb/foo"?: random network error`,
	})
	tests.Add("missing document", tt{
		db: newTestDB(&http.Response{
			StatusCode: 404,
			Header: http.Header{
				"Content-Type":   []string{"application/json"},
				"Content-Length": []string{"41"},
			},
			ContentLength: 41,
			Body:          Body(`{"error":"not_found","reason":"missing"}`),
		}, nil),
		id: "missing",
	})
	tests.Add("error response", tt{
		db: newTestDB(&http.Response{
			StatusCode: 500,
			Body:       Body(""),
		}, nil),
		id:     "foo",
		status: http.StatusInternalServerError,
		err:    "Internal Server Error",
	})
	tests.Add("invalid JSON response", tt{
		db: newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`invalid json`),
		}, nil),
		id:     "foo",
		status: http.StatusBadGateway,
		err:    "invalid character 'i' looking for beginning of value",
	})
	tests.Add("success", func(*testing.T) interface{} {
		db := newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`{"_id":"cow","_rev":"1-4c6114c65e295552ab1019e2b046b10e","feet":4,"greeting":"moo"}`),
		}, nil)
		return tt{
			db: db,
			id: "cow",
			expected: &Document{
				ID:  "cow",
				Rev: "1-4c6114c65e295552ab1019e2b046b10e",
				Data: map[string]interface{}{
					"feet":     float64(4),
					"greeting": "moo",
				},
				db: db,
			},
		}
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		result, err := tt.db.Get(context.Background(), tt.id)
		statusErrorRE(t, tt.err, tt.status, err)
		if d := testy.DiffInterface(tt.expected, result); d != nil {
			t.Error(d)
		}
	})
}

func TestAllDocs(t *testing.T) {
	type tt struct {
		db       *DB
		expected []*Document
		status   int
		err      string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("network error", tt{
		db:     newTestDB(nil, errors.New("random network error")),
		status: http.StatusBadGateway,
		err:    `Get "?http://example.com/testdb/_all_docs"?: random network error`,
	})
	tests.Add("missing database", tt{
		db: newTestDB(&http.Response{
			StatusCode: 404,
			Header: http.Header{
				"Content-Type":   []string{"application/json"},
				"Content-Length": []string{"41"},
			},
			ContentLength: 41,
			Body:          Body(`{"error":"not_found","reason":"missing"}`),
		}, nil),
		status: http.StatusNotFound,
		err:    "Not Found: missing",
	})
	tests.Add("empty database", tt{
		db: newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`{"total_rows":0,"offset":0,"rows":[]}`),
		}, nil),
		expected: []*Document{},
	})
	tests.Add("success", func(*testing.T) interface{} {
		db := newTestDB(&http.Response{
			StatusCode: 200,
			Body: Body(`{"total_rows":3,"offset":0,"rows":[
				{"id":"cow","key":"cow","value":{"rev":"1-4c6114c65e295552ab1019e2b046b10e"}},
				{"id":"dog","key":"dog","value":{"rev":"2-eec205a9d413992850a6e32678485900"}},
				{"id":"hen","key":"hen","value":{"rev":"1-6e609020e0371257432797b4319c5829"}}
			]}`),
		}, nil)
		return tt{
			db: db,
			expected: []*Document{
				{ID: "cow", Rev: "1-4c6114c65e295552ab1019e2b046b10e", db: db},
				{ID: "dog", Rev: "2-eec205a9d413992850a6e32678485900", db: db},
				{ID: "hen", Rev: "1-6e609020e0371257432797b4319c5829", db: db},
			},
		}
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		result, err := tt.db.AllDocs(context.Background())
		statusErrorRE(t, tt.err, tt.status, err)
		if d := testy.DiffInterface(tt.expected, result); d != nil {
			t.Error(d)
		}
	})
}

func TestDrop(t *testing.T) {
	type tt struct {
		db     *DB
		status int
		err    string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("does not exist", tt{
		db: newTestDB(&http.Response{
			StatusCode: 404,
			Header: http.Header{
				"Content-Type":   []string{"application/json"},
				"Content-Length": []string{"41"},
			},
			ContentLength: 41,
			Body:          Body(`{"error":"not_found","reason":"missing"}`),
		}, nil),
		status: http.StatusNotFound,
		err:    `klippan: database "testdb" does not exist: Not Found: missing`,
	})
	tests.Add("success", tt{
		db: newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`{"ok":true}`),
		}, nil),
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		err := tt.db.Drop(context.Background())
		statusErrorRE(t, tt.err, tt.status, err)
	})
}

func TestInfo(t *testing.T) {
	type tt struct {
		db       *DB
		expected *DBInfo
		status   int
		err      string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("network error", tt{
		db:     newTestDB(nil, errors.New("random network error")),
		status: http.StatusBadGateway,
		err:    `Get "?http://example.com/testdb"?: random network error`,
	})
	tests.Add("invalid JSON response", tt{
		db: newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`invalid json`),
		}, nil),
		status: http.StatusBadGateway,
		err:    "invalid character 'i' looking for beginning of value",
	})
	tests.Add("success", tt{
		db: newTestDB(&http.Response{
			StatusCode: 200,
			Body:       Body(`{"db_name":"testdb","doc_count":17,"doc_del_count":3,"disk_size":65536,"compact_running":false}`),
		}, nil),
		expected: &DBInfo{
			DocCount: 17,
			DelCount: 3,
			DiskSize: 65536,
		},
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		result, err := tt.db.Info(context.Background())
		statusErrorRE(t, tt.err, tt.status, err)
		if d := testy.DiffInterface(tt.expected, result); d != nil {
			t.Error(d)
		}
	})
}

func TestInfoCached(t *testing.T) {
	var calls int
	db := newCustomDB(func(req *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: 200,
			Request:    req,
			Body:       Body(`{"db_name":"testdb","doc_count":17,"doc_del_count":3,"disk_size":65536,"compact_running":false}`),
		}, nil
	})

	info, err := db.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Unexpected request count: %d", calls)
	}

	cached, err := db.InfoCached(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("InfoCached made a request; request count: %d", calls)
	}
	if cached == info {
		t.Error("InfoCached returned the cached pointer itself")
	}
	if d := testy.DiffInterface(info, cached); d != nil {
		t.Error(d)
	}

	if _, err = db.Info(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("Unexpected request count: %d", calls)
	}
}

func TestInfoCachedCold(t *testing.T) {
	var calls int
	db := newCustomDB(func(req *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: 200,
			Request:    req,
			Body:       Body(`{"db_name":"testdb","doc_count":0,"doc_del_count":0,"disk_size":4096,"compact_running":false}`),
		}, nil
	})

	info, err := db.InfoCached(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Unexpected request count: %d", calls)
	}
	expected := &DBInfo{DiskSize: 4096}
	if d := testy.DiffInterface(expected, info); d != nil {
		t.Error(d)
	}
}

func TestCompact(t *testing.T) {
	type tt struct {
		db     *DB
		status int
		err    string
	}

	tests := testy.NewTable()
	tests.Add("invalid db handle", tt{
		db:     newTestClient(nil, errors.New("unexpected request")).DB(""),
		status: http.StatusBadRequest,
		err:    "klippan: name required",
	})
	tests.Add("network error", tt{
		db:     newTestDB(nil, errors.New("random network error")),
		status: http.StatusBadGateway,
		err:    `Post "?http://example.com/testdb/_compact"?: random network error`,
	})
	tests.Add("error response", tt{
		db: newTestDB(&http.Response{
			StatusCode: 404,
			Body:       Body(""),
		}, nil),
		status: http.StatusNotFound,
		err:    "Not Found",
	})
	tests.Add("accepted", tt{
		db: newTestDB(&http.Response{
			StatusCode: 202,
			Body:       Body(`{"ok":true}`),
		}, nil),
	})

	tests.Run(t, func(t *testing.T, tt tt) {
		err := tt.db.Compact(context.Background())
		statusErrorRE(t, tt.err, tt.status, err)
	})
}

func TestCompactWait(t *testing.T) {
	t.Run("compact request fails", func(t *testing.T) {
		db := newTestDB(&http.Response{
			StatusCode: 404,
			Body:       Body(""),
		}, nil)
		err := db.CompactWait(context.Background())
		statusErrorRE(t, "Not Found", http.StatusNotFound, err)
	})

	t.Run("poll fails", func(t *testing.T) {
		db := newCustomDB(func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodPost {
				return &http.Response{
					StatusCode: 202,
					Request:    req,
					Body:       Body(`{"ok":true}`),
				}, nil
			}
			return &http.Response{
				StatusCode: 500,
				Request:    req,
				Body:       Body(""),
			}, nil
		})
		err := db.CompactWait(context.Background())
		statusErrorRE(t, "Internal Server Error", http.StatusInternalServerError, err)
	})

	t.Run("waits for completion", func(t *testing.T) {
		var polls int
		db := newCustomDB(func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodPost {
				return &http.Response{
					StatusCode: 202,
					Request:    req,
					Body:       Body(`{"ok":true}`),
				}, nil
			}
			polls++
			running := "true"
			if polls >= 3 {
				running = "false"
			}
			return &http.Response{
				StatusCode: 200,
				Request:    req,
				Body:       Body(`{"db_name":"testdb","doc_count":1,"doc_del_count":0,"disk_size":4096,"compact_running":` + running + `}`),
			}, nil
		})
		if err := db.CompactWait(context.Background()); err != nil {
			t.Fatal(err)
		}
		if polls != 3 {
			t.Errorf("Unexpected poll count: %d", polls)
		}
	})
}
