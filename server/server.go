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

// Package server provides an in-memory document database server speaking the
// classic pre-1.0 REST dialect.
package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/monoculum/formam/v3"
	"gitlab.com/flimzy/httpe"

	"github.com/go-klippan/klippan"
)

const defaultCompactDelay = 100 * time.Millisecond

// Server is a server instance. It implements http.Handler, and is backed by
// a purely in-memory store: nothing survives a restart.
type Server struct {
	mux          *chi.Mux
	store        *store
	formDecoder  *formam.Decoder
	compactDelay time.Duration
}

// New instantiates a new server instance.
func New(options ...Option) *Server {
	s := &Server{
		mux:   chi.NewMux(),
		store: newStore(),
		formDecoder: formam.NewDecoder(&formam.DecoderOptions{
			TagName: "form",
		}),
		compactDelay: defaultCompactDelay,
	}
	for _, option := range options {
		option.apply(s)
	}
	s.routes(s.mux)
	return s
}

func (s *Server) routes(mux *chi.Mux) {
	mux.Use(
		GetHead,
		httpe.ToMiddleware(s.handleErrors),
	)
	mux.Get("/", httpe.ToHandler(s.root()).ServeHTTP)
	mux.Get("/_up", httpe.ToHandler(s.up()).ServeHTTP)
	mux.Get("/_all_dbs", httpe.ToHandler(s.allDBs()).ServeHTTP)
	mux.Get("/_uuids", httpe.ToHandler(s.uuids()).ServeHTTP)

	// Databases
	mux.Head("/{db}", httpe.ToHandler(s.dbExists()).ServeHTTP)
	mux.Get("/{db}", httpe.ToHandler(s.db()).ServeHTTP)
	mux.Put("/{db}", httpe.ToHandler(s.createDB()).ServeHTTP)
	mux.Delete("/{db}", httpe.ToHandler(s.deleteDB()).ServeHTTP)
	mux.Post("/{db}", httpe.ToHandler(s.createDoc()).ServeHTTP)
	mux.Get("/{db}/_all_docs", httpe.ToHandler(s.allDocs()).ServeHTTP)
	mux.Post("/{db}/_compact", httpe.ToHandler(s.compact()).ServeHTTP)
	mux.Post("/{db}/_bulk_docs", httpe.ToHandler(s.bulkDocs()).ServeHTTP)

	// Documents
	mux.Get("/{db}/{docid}", httpe.ToHandler(s.doc()).ServeHTTP)
	mux.Put("/{db}/{docid}", httpe.ToHandler(s.putDoc()).ServeHTTP)
	mux.Delete("/{db}/{docid}", httpe.ToHandler(s.deleteDoc()).ServeHTTP)

	// Design and local documents
	mux.Get("/{db}/_design/{docid}", httpe.ToHandler(s.doc()).ServeHTTP)
	mux.Put("/{db}/_design/{docid}", httpe.ToHandler(s.putDoc()).ServeHTTP)
	mux.Delete("/{db}/_design/{docid}", httpe.ToHandler(s.deleteDoc()).ServeHTTP)
	mux.Get("/{db}/_local/{docid}", httpe.ToHandler(s.doc()).ServeHTTP)
	mux.Put("/{db}/_local/{docid}", httpe.ToHandler(s.putDoc()).ServeHTTP)
	mux.Delete("/{db}/_local/{docid}", httpe.ToHandler(s.deleteDoc()).ServeHTTP)
}

func (s *Server) handleErrors(next httpe.HandlerWithError) httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		if err := next.ServeHTTPWithError(w, r); err != nil {
			status := klippan.HTTPStatus(err)
			ce := &couchError{}
			if !errors.As(err, &ce) {
				ce.Err = strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
				ce.Reason = err.Error()
			}
			return serveJSON(w, status, ce)
		}
		return nil
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// reqDB resolves the {db} URL parameter to its store entry.
func (s *Server) reqDB(r *http.Request) (*database, error) {
	name, err := reqDBName(r)
	if err != nil {
		return nil, err
	}
	return s.store.get(name)
}

func reqDBName(r *http.Request) (string, error) {
	name, err := url.PathUnescape(chi.URLParam(r, "db"))
	if err != nil {
		return "", &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "invalid database name"}
	}
	return name, nil
}

// reqDocID resolves the {docid} URL parameter, restoring the _design/ or
// _local/ prefix consumed by the route.
func reqDocID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "docid"))
	if err != nil {
		return "", &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "invalid document ID"}
	}
	pattern := chi.RouteContext(r.Context()).RoutePattern()
	switch {
	case strings.Contains(pattern, "/_design/"):
		id = "_design/" + id
	case strings.Contains(pattern, "/_local/"):
		id = "_local/" + id
	default:
		if err := validateDocID(id); err != nil {
			return "", err
		}
	}
	return id, nil
}

func validateDocID(id string) error {
	if !strings.HasPrefix(id, "_") || strings.HasPrefix(id, "_design/") || strings.HasPrefix(id, "_local/") {
		return nil
	}
	return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: "Only reserved document ids may start with underscore."}
}
