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
	"fmt"
	"net/http"

	"github.com/go-klippan/klippan/internal"
)

// HTTPStatus returns the HTTP status code embedded in the error, or 500
// (internal server error) if there was no specified status code. If err is
// nil, 0 is returned.
//
// Errors returned by this package embed the HTTP status of the failure:
// 400 for arguments rejected before any request is sent, the server's own
// status for remote failures, and 502 when a response body could not be
// decoded. Match statuses against the net/http constants:
//
//	if klippan.HTTPStatus(err) == http.StatusConflict {
//	    // database already exists
//	}
func HTTPStatus(err error) int {
	return internal.HTTPStatus(err)
}

func missingArg(arg string) error {
	return &internal.Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("klippan: %s required", arg)}
}
