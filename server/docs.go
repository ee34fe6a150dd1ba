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
	"net/http"

	"gitlab.com/flimzy/httpe"
)

func (s *Server) doc() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		id, err := reqDocID(r)
		if err != nil {
			return err
		}
		doc, err := db.get(id)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusOK, doc)
	})
}

func (s *Server) putDoc() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		id, err := reqDocID(r)
		if err != nil {
			return err
		}
		var content map[string]interface{}
		if err := s.bind(r, &content); err != nil {
			return err
		}
		if bodyID, _ := stringField(content, "_id"); bodyID != "" && bodyID != id {
			return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "Document ID must match _id field"}
		}
		rev, err := db.put(id, content)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":  true,
			"id":  id,
			"rev": rev,
		})
	})
}

func (s *Server) deleteDoc() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		id, err := reqDocID(r)
		if err != nil {
			return err
		}
		req := struct {
			Rev string `form:"rev"`
		}{}
		if err := s.bindQuery(r, &req); err != nil {
			return err
		}
		rev, err := db.delete(id, req.Rev)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusOK, map[string]interface{}{
			"ok":  true,
			"id":  id,
			"rev": rev,
		})
	})
}

func (s *Server) createDoc() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		var content map[string]interface{}
		if err := s.bind(r, &content); err != nil {
			return err
		}
		id, rev, err := db.create(content)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":  true,
			"id":  id,
			"rev": rev,
		})
	})
}

func (s *Server) bulkDocs() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := s.reqDB(r)
		if err != nil {
			return err
		}
		req := struct {
			Docs []map[string]interface{} `json:"docs"`
		}{}
		if err := s.bind(r, &req); err != nil {
			return err
		}
		acks, err := db.bulkSave(req.Docs)
		if err != nil {
			return err
		}
		return serveJSON(w, http.StatusCreated, map[string]interface{}{
			"ok":       true,
			"new_revs": acks,
		})
	})
}
