package cli

import (
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/kbukum/netclient/netclient"
	"github.com/kbukum/netclient/target"
)

type requestOptions struct {
	target      string
	stub        string
	delay       time.Duration
	fixtures    string
	timeout     time.Duration
	keyPath     string
	headers     map[string]string
	raw         bool
	verbose     bool
	requireBody bool
	schema      string
}

func newRequestCmd(g *globalOptions) *cobra.Command {
	o := &requestOptions{}
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Execute a target file and print the response",
		Long: `Execute the target described by a YAML file and print the payload after
key path extraction. Stub flags override the client configuration.`,
		Example: `  netclient request --target user.yaml
  netclient request --target user.yaml --stub immediate --fixtures ./fixtures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRequest(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.target, "target", "t", "", "target YAML file")
	f.StringVar(&o.stub, "stub", "", "stub mode: never, immediate, delayed, mock_server")
	f.DurationVar(&o.delay, "delay", 0, "delay for the delayed stub mode")
	f.StringVar(&o.fixtures, "fixtures", "", "fixture directory")
	f.DurationVar(&o.timeout, "timeout", 0, "request timeout")
	f.StringVar(&o.keyPath, "key-path", "", "override the target key path")
	f.StringToStringVarP(&o.headers, "header", "H", nil, "extra header, name=value")
	f.BoolVar(&o.raw, "raw", false, "print the payload without formatting")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "print response headers")
	f.BoolVar(&o.requireBody, "require-body", false, "fail when the payload is empty")
	f.StringVar(&o.schema, "schema", "", "JSON Schema file the payload must satisfy")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runRequest(cmd *cobra.Command, g *globalOptions, o *requestOptions) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(ctx) }()

	d, err := target.LoadFile(a.fs, o.target)
	if err != nil {
		return err
	}
	if o.keyPath != "" {
		d.KeyPath = o.keyPath
	}
	if len(o.headers) > 0 {
		d = d.WithHeaders(o.headers)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("target %s: %w", o.target, err)
	}

	cfg := a.cfg.Client
	if o.stub != "" {
		cfg.Stub.Mode = o.stub
	}
	if o.delay > 0 {
		cfg.Stub.Delay = o.delay
	}
	if o.fixtures != "" {
		cfg.Fixtures.Dir = o.fixtures
	}
	if o.timeout > 0 {
		cfg.Timeout = o.timeout
	}

	var schema *jsonschema.Schema
	if o.schema != "" {
		if schema, err = compileSchema(a.fs, o.schema); err != nil {
			return err
		}
	}

	client, err := netclient.New(cfg, a.clientOptions(cfg)...)
	if err != nil {
		return err
	}

	var callOpts []netclient.CallOption
	if o.requireBody {
		callOpts = append(callOpts, netclient.RequireBody())
	}

	out := cmd.OutOrStdout()
	p := newPrinter(out, g.noColor)
	resp, err := client.Execute(ctx, d, callOpts...)
	if err != nil {
		p.err(err)
		return errSilent
	}
	if schema != nil {
		if err := validatePayload(schema, resp.Body); err != nil {
			p.fail(err)
			return errSilent
		}
	}

	if o.raw {
		_, err := out.Write(resp.Body)
		return err
	}
	p.response(resp, o.verbose)
	return nil
}
