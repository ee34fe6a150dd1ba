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

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type jsonFormat struct {
	indent string
}

var (
	_ Format      = &jsonFormat{}
	_ FormatFlags = &jsonFormat{}
)

// JSON returns the JSON format. With no indent configured, the output is
// compacted to a single line.
func JSON() Format {
	return &jsonFormat{}
}

func (f *jsonFormat) ConfigFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.indent, "json-indent", "", "Indent JSON output with this string, or this many spaces")
}

func (f *jsonFormat) indentString() string {
	if n, err := strconv.Atoi(f.indent); err == nil && n >= 0 {
		return strings.Repeat(" ", n)
	}
	return f.indent
}

func (f *jsonFormat) Output(w io.Writer, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if indent := f.indentString(); indent != "" {
		err = json.Indent(buf, raw, "", indent)
	} else {
		err = json.Compact(buf, raw)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}
