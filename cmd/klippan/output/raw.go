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

package output

import "io"

type rawFormat struct{}

var _ Format = rawFormat{}

// Raw returns the raw format, which copies the response body through
// untouched.
func Raw() Format {
	return rawFormat{}
}

func (rawFormat) Output(w io.Writer, r io.Reader) error {
	_, err := io.Copy(w, r)
	return err
}
