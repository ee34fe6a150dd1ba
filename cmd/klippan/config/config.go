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

// Package config manages the CLI configuration file, and resolution of the
// target server, database, and document from the command line.
package config

import (
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-klippan/klippan/cmd/klippan/errors"
	"github.com/go-klippan/klippan/cmd/klippan/log"
)

const envPrefix = "KLIPPAN"

// Context is one named server connection in the configuration file.
type Context struct {
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
}

func (c *Context) String() string {
	return c.DSN
}

// Config is the full CLI configuration.
type Config struct {
	Contexts       map[string]*Context `mapstructure:"contexts" yaml:"contexts" validate:"dive"`
	CurrentContext string              `mapstructure:"current-context" yaml:"current-context"`

	// context is the --context flag, which overrides CurrentContext.
	context   string
	envDSN    string
	arg       *target
	log       log.Logger
	finalizer func()
}

// target is a resolved request target: the server root, plus the database
// and document the path addresses, when present.
type target struct {
	Server string
	DB     string
	DocID  string
}

func (t *target) String() string {
	s := strings.TrimSuffix(t.Server, "/")
	if t.DB != "" {
		s += "/" + t.DB
	}
	if t.DocID != "" {
		s += "/" + t.DocID
	}
	return s
}

// New returns an empty configuration object. Call Read() to populate it.
func New(finalizer func()) *Config {
	return &Config{
		Contexts:  make(map[string]*Context),
		finalizer: finalizer,
	}
}

// ConfigFlags registers the context selection flag.
func (c *Config) ConfigFlags(pf *pflag.FlagSet) {
	pf.StringVar(&c.context, "context", "", "The named configuration context to use")
}

// Read populates c with the configuration found in filename. A missing
// configuration file is not an error. The KLIPPAN_DSN environment variable
// provides a fallback context when neither the command line nor the
// configuration selects one.
func (c *Config) Read(filename string, lg log.Logger) error {
	c.log = lg
	if err := c.readFile(filename); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}
	if c.envDSN = os.Getenv(envPrefix + "_DSN"); c.envDSN != "" {
		lg.Debug("read fallback DSN from environment")
	}
	return nil
}

func (c *Config) readFile(filename string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = v.BindEnv("current-context")
	if filename != "" {
		v.SetConfigFile(filename)
		err := v.ReadInConfig()
		switch {
		case err == nil:
			c.log.Debugf("successfully read config file %q", v.ConfigFileUsed())
		case os.IsNotExist(err):
			c.log.Debugf("config file %q not found", filename)
		default:
			c.log.Debugf("failed to read config: %s", err)
			return errors.WithCode(err, errors.ErrUsage)
		}
	}
	if err := v.Unmarshal(c); err != nil {
		return errors.WithCode(err, errors.ErrUsage)
	}
	return nil
}

func (c *Config) validate() error {
	v := validator.New()
	v.RegisterStructValidation(validateCurrentContext, Config{})
	if err := v.Struct(c); err != nil {
		return errors.Codef(errors.ErrUsage, "invalid config: %s", err)
	}
	return nil
}

// validateCurrentContext reports a current-context that names no known
// context.
func validateCurrentContext(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.CurrentContext == "" {
		return
	}
	if _, ok := c.Contexts[c.CurrentContext]; !ok {
		sl.ReportError(c.CurrentContext, "CurrentContext", "CurrentContext", "context", "")
	}
}

// CurrentCx returns the context selected by the --context flag, the
// configuration file, or the environment, in that order.
func (c *Config) CurrentCx() (*Context, error) {
	if c.context != "" {
		cx, ok := c.Contexts[c.context]
		if !ok {
			return nil, errors.Codef(errors.ErrUsage, "context %q not found", c.context)
		}
		return cx, nil
	}
	if c.CurrentContext != "" {
		cx, ok := c.Contexts[c.CurrentContext]
		if !ok {
			return nil, errors.Codef(errors.ErrUsage, "context %q not found", c.CurrentContext)
		}
		return cx, nil
	}
	if len(c.Contexts) == 1 {
		for _, cx := range c.Contexts {
			return cx, nil
		}
	}
	if c.envDSN != "" {
		return &Context{DSN: c.envDSN}, nil
	}
	return nil, errors.Code(errors.ErrUsage, "no context specified")
}

// Args captures the target argument from the command line.
func (c *Config) Args(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		if err := c.SetURL(args[0]); err != nil {
			return err
		}
		c.log.Debug("set target from command line arguments")
	}
	return nil
}

// SetURL sets the request target from a command line argument. A target
// without a scheme is relative, and is merged with the current context.
//
// Supported formats and examples:
//
//   - Full DSN    -- http://localhost:5984/database/docid
//   - Path only   -- database/docid
//   - Doc ID only -- docid
func (c *Config) SetURL(dsn string) error {
	if dsn == "" {
		return nil
	}
	t, err := parseTarget(dsn)
	if err != nil {
		return err
	}
	if t.Server == "" {
		c.log.Debugf("relative target %q will merge with the current context", dsn)
	}
	c.arg = t
	return nil
}

// parseTarget splits a command line target into server, database, and
// document components. A target without "://" is relative, addressing a
// database and/or document only.
func parseTarget(dsn string) (*target, error) {
	if !strings.Contains(dsn, "://") {
		db, doc := splitDBDoc(dsn)
		return &target{DB: db, DocID: doc}, nil
	}
	uri, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.WithCode(err, errors.ErrUsage)
	}
	db, doc := splitDBDoc(uri.Path)
	uri.Path = ""
	uri.RawPath = ""
	uri.RawQuery = ""
	uri.Fragment = ""
	return &target{Server: uri.String(), DB: db, DocID: doc}, nil
}

// splitDBDoc splits a path into database and document ID. Anything beyond
// the first element belongs to the document ID, which keeps the _design/
// and _local/ prefixes intact.
func splitDBDoc(p string) (db, doc string) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func withScheme(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return "http://" + dsn
	}
	return dsn
}

// resolve merges the command line target with the current context. An
// absolute command line target wins outright. A relative one borrows the
// context's server, and a bare document ID borrows its database, too.
func (c *Config) resolve() (*target, error) {
	if c.arg != nil && c.arg.Server != "" {
		return c.arg, nil
	}
	cx, err := c.CurrentCx()
	if err != nil {
		return nil, err
	}
	base, err := parseTarget(withScheme(cx.DSN))
	if err != nil {
		return nil, err
	}
	if base.Server == "" {
		return nil, errors.Code(errors.ErrUsage, "server hostname required")
	}
	if c.arg == nil {
		return base, nil
	}
	t := *base
	switch {
	case c.arg.DocID != "" && base.DB != "" &&
		(c.arg.DB == "_design" || c.arg.DB == "_local"):
		t.DocID = c.arg.DB + "/" + c.arg.DocID
	case c.arg.DocID != "":
		t.DB, t.DocID = c.arg.DB, c.arg.DocID
	case base.DB != "":
		t.DocID = c.arg.DB
	default:
		t.DB = c.arg.DB
	}
	return &t, nil
}

// DSN returns the full target DSN, including any database and document.
func (c *Config) DSN() (string, error) {
	t, err := c.resolve()
	if err != nil {
		return "", err
	}
	c.finalize()
	return t.String(), nil
}

// ServerDSN returns the DSN of the target server, with no database or
// document.
func (c *Config) ServerDSN() (string, error) {
	t, err := c.resolve()
	if err != nil {
		return "", err
	}
	c.finalize()
	return t.Server, nil
}

// DB returns the target database name. It is an error for the target to
// address a document, or no database at all.
func (c *Config) DB() (string, error) {
	t, err := c.resolve()
	if err != nil {
		return "", err
	}
	if t.DocID != "" {
		return "", errors.Code(errors.ErrUsage, "target expected to address only a database")
	}
	if t.DB == "" {
		return "", errors.Code(errors.ErrUsage, "database name required")
	}
	c.finalize()
	return t.DB, nil
}

// DBDoc returns the target database and document ID.
func (c *Config) DBDoc() (db, doc string, err error) {
	t, err := c.resolve()
	if err != nil {
		return "", "", err
	}
	if t.DB == "" {
		return "", "", errors.Code(errors.ErrUsage, "database name required")
	}
	c.finalize()
	return t.DB, t.DocID, nil
}

// HasDoc returns true if the target addresses a document.
func (c *Config) HasDoc() bool {
	t, err := c.resolve()
	if err != nil {
		return false
	}
	c.finalize()
	return t.DocID != ""
}

// HasDB returns true if the target addresses a database.
func (c *Config) HasDB() bool {
	t, err := c.resolve()
	if err != nil {
		return false
	}
	c.finalize()
	return t.DB != ""
}

func (c *Config) finalize() {
	if c.finalizer != nil {
		c.finalizer()
	}
}

// Finalize marks the configuration as successfully consumed.
func (c *Config) Finalize() {
	c.finalize()
}
