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

// Package internal provides the status-carrying error type shared by all
// klippan packages.
package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is an error with an embedded HTTP status code.
//
// This type is not guaranteed to remain stable. When examining errors
// programmatically, rely on the package-level HTTPStatus functions rather
// than on the fields of this type.
type Error struct {
	// Status is the HTTP status code associated with this error. Normally
	// this is the status returned by the server, but for errors generated
	// client-side it is the status that best describes the failure.
	Status int

	// Message is the error message.
	Message string

	// Err is the originating error, if any.
	Err error
}

var (
	_ error         = (*Error)(nil)
	_ fmt.Formatter = (*Error)(nil)
)

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// HTTPStatus returns the HTTP status code associated with the error, or 500
// (internal server error) if none was set.
func (e *Error) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Unwrap satisfies the errors wrapper interface.
func (e *Error) Unwrap() error {
	return e.Err
}

// Format satisfies the fmt.Formatter interface. The %+v verb includes the
// numeric status and its text alongside the message.
func (e *Error) Format(f fmt.State, c rune) {
	parts := make([]string, 0, 3)
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if c == 'v' && f.Flag('+') && e.Status > 0 {
		parts = append(parts, fmt.Sprintf("%d / %s", e.Status, http.StatusText(e.Status)))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	fmt.Fprint(f, strings.Join(parts, ": "))
}

// HTTPStatus returns the HTTP status code embedded in the error, or 500
// (internal server error) if there was no specified status code. If err is
// nil, 0 is returned.
func HTTPStatus(err error) int {
	if err == nil {
		return 0
	}
	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) {
		return statusErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
