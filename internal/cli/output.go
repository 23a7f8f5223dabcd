package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/kbukum/netclient/netclient"
)

// printer renders call results for terminals.
type printer struct {
	w       io.Writer
	noColor bool

	status  *color.Color
	failure *color.Color
	key     *color.Color
	muted   *color.Color
}

func newPrinter(w io.Writer, noColor bool) *printer {
	if !noColor {
		noColor = !isTerminal(w) || strings.TrimSpace(os.Getenv("NO_COLOR")) != ""
	}
	p := &printer{
		w:       w,
		noColor: noColor,
		status:  color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		key:     color.New(color.FgCyan),
		muted:   color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.status, p.failure, p.key, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

// response prints the status line, headers when verbose, and the body.
func (p *printer) response(resp *netclient.Response, verbose bool) {
	line := fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.Stubbed {
		line += " (stub)"
	}
	p.status.Fprintln(p.w, line)

	if verbose && len(resp.Headers) > 0 {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.key.Fprint(p.w, k+": ")
			fmt.Fprintln(p.w, resp.Headers[k])
		}
		fmt.Fprintln(p.w)
	}

	p.body(resp.Body)
}

// body pretty-prints JSON payloads and writes anything else verbatim.
func (p *printer) body(b []byte) {
	if len(b) == 0 {
		p.muted.Fprintln(p.w, "(empty body)")
		return
	}
	if !gjson.ValidBytes(b) {
		fmt.Fprintln(p.w, string(b))
		return
	}
	out := pretty.Pretty(b)
	if !p.noColor {
		out = pretty.Color(out, nil)
	}
	_, _ = p.w.Write(out)
}

func (p *printer) err(err error) {
	e := netclient.AsError(err)
	p.failure.Fprintf(p.w, "error [%s]: ", e.Code)
	fmt.Fprintln(p.w, e.Error())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) fail(err error) {
	p.failure.Fprint(p.w, "error: ")
	fmt.Fprintln(p.w, err.Error())
}
