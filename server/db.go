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
	"fmt"
	"net/http"

	"gitlab.com/flimzy/httpe"
)

const maxUUIDCount = 1000

func (s *Server) allDBs() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, _ *http.Request) error {
		return serveJSON(w, http.StatusOK, s.store.names())
	})
}

func (s *Server) uuids() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		req := struct {
			Count int `form:"count"`
		}{Count: 1}
		if err := s.bindQuery(r, &req); err != nil {
			return err
		}
		if req.Count < 1 {
			return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "count must be a positive integer"}
		}
		if req.Count > maxUUIDCount {
			return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: fmt.Sprintf("count must not exceed %d", maxUUIDCount)}
		}
		uuids := make([]string, req.Count)
		for i := range uuids {
			uuids[i] = newUUID()
		}
		return serveJSON(w, http.StatusOK, map[string][]string{"uuids": uuids})
	})
}

func (s *Server) dbExists() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		name, err := reqDBName(r)
		if err != nil {
			return err
		}
		if !s.store.exists(name) {
			return errDBNotFound
		}
		w.WriteHeader(http.StatusOK)
		return nil
	})
}

func (s *Server) db() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		name, err := reqDBName(r)
		if err != nil {
			return err
		}
		db, err := s.store.get(name)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusOK, db.info(name))
	})
}

func (s *Server) createDB() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		name, err := reqDBName(r)
		if err != nil {
			return err
		}
		if err := s.store.create(name); err != nil {
			return err
		}
		return serveJSON(w, http.StatusCreated, map[string]bool{"ok": true})
	})
}

func (s *Server) deleteDB() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		name, err := reqDBName(r)
		if err != nil {
			return err
		}
		if err := s.store.drop(name); err != nil {
			return err
		}
		return serveJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
}

func (s *Server) compact() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		db.compact(s.compactDelay)
		return serveJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
	})
}

func (s *Server) allDocs() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		rows := db.allDocs()
		return serveJSON(w, http.StatusOK, map[string]interface{}{
			"total_rows": len(rows),
			"offset":     0,
			"rows":       rows,
		})
	})
}
