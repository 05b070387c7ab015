package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/rxhttp/errors"
	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/validation"
)

var decoders = []string{"raw", "text", "json", "plist"}

// options are the command-line flags of one invocation.
type options struct {
	URL        string
	Method     string
	Data       string
	File       string
	Output     string
	Decode     string
	Charset    string
	ConfigFile string
	Token      string
	JSONBody   bool
	Include    bool
	Progress   bool
	Verbose    bool
	Version    bool
	Headers    map[string]string
	Params     httpclient.Parameters
}

// pairs collects repeated KEY<sep>VALUE flags.
type pairs struct {
	sep  string
	into map[string]string
}

func (p *pairs) String() string { return "" }

func (p *pairs) Set(s string) error {
	k, v, ok := strings.Cut(s, p.sep)
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("expected KEY%sVALUE, got %q", p.sep, s)
	}
	p.into[strings.TrimSpace(k)] = strings.TrimSpace(v)
	return nil
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	o := &options{Headers: map[string]string{}}
	params := map[string]string{}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <url>\n", serviceName)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.Method, "X", "", "request method (default GET, or POST with -d/-f)")
	fs.StringVar(&o.Data, "d", "", "upload `body`")
	fs.StringVar(&o.File, "f", "", "upload the file at `path`")
	fs.StringVar(&o.Output, "o", "", "download to `path` instead of printing the body")
	fs.StringVar(&o.Decode, "decode", "raw", "body decoder: "+strings.Join(decoders, ", "))
	fs.StringVar(&o.Charset, "charset", "", "text charset, defaults to the response charset")
	fs.StringVar(&o.ConfigFile, "config", "", "config file `path`")
	fs.StringVar(&o.Token, "token", "", "bearer token")
	fs.BoolVar(&o.JSONBody, "json", false, "send parameters as a JSON body")
	fs.BoolVar(&o.Include, "i", false, "print the status line and headers")
	fs.BoolVar(&o.Progress, "progress", false, "report transfer progress on stderr")
	fs.BoolVar(&o.Verbose, "v", false, "debug logging")
	fs.BoolVar(&o.Version, "version", false, "print the build version and exit")
	fs.Var(&pairs{sep: ":", into: o.Headers}, "H", "request header `Name: value` (repeatable)")
	fs.Var(&pairs{sep: "=", into: params}, "p", "request parameter `key=value` (repeatable)")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, apperrors.InvalidInput("flags", err.Error()).WithCause(err)
	}
	if fs.NArg() == 1 {
		o.URL = fs.Arg(0)
	}
	if len(params) > 0 {
		o.Params = httpclient.Parameters{}
		for k, v := range params {
			o.Params[k] = v
		}
	}
	if o.Method == "" {
		o.Method = http.MethodGet
		if o.Data != "" || o.File != "" {
			o.Method = http.MethodPost
		}
	}
	o.Method = strings.ToUpper(o.Method)
	if o.Version {
		return o, nil
	}

	if err := o.validate(fs.NArg()); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *options) validate(nargs int) error {
	v := validation.New().
		Required("url", o.URL).
		OneOf("decode", o.Decode, decoders).
		Custom(nargs <= 1, "url", "exactly one URL is allowed").
		Custom(o.Data == "" || o.File == "", "d", "cannot be combined with -f").
		Custom(o.Output == "" || (o.Data == "" && o.File == ""), "o", "downloads cannot upload a body")
	if !strings.HasPrefix(o.URL, "/") {
		v.HTTPURL("url", o.URL)
	}
	return v.Error()
}

// request builds the request descriptor.
func (o *options) request() httpclient.RequestSpec {
	spec := httpclient.RequestSpec{
		Method:     o.Method,
		URL:        o.URL,
		Parameters: o.Params,
		Headers:    o.Headers,
	}
	if o.JSONBody {
		spec.Encoding = httpclient.JSONEncoding{}
	}
	return spec
}
