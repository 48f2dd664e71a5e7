package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/log"
	"gstdash/internal/services"
	"gstdash/internal/session"
)

// Page templates. Each is parsed together with the layout and partials
// and defines a "content" block.
const (
	pageLogin          = "login"
	pageVendors        = "vendors"
	pageFilings        = "filings"
	pageVendorSelector = "vendor_selector"
	pageVendorDetails  = "vendor_details"
	pageNotFound       = "not_found"
)

var pageNames = []string{
	pageLogin, pageVendors, pageFilings, pageVendorSelector, pageVendorDetails, pageNotFound,
}

// page is the data every template receives.
type page struct {
	Title   string
	Nav     string
	Session *session.Session
	Error   *errorBanner
	Data    any
	Now     time.Time
	// Notice is raised as a warning toast on htmx swaps.
	Notice string
}

// errorBanner is shown in place of data when an upstream call failed.
type errorBanner struct {
	Message string
	Retry   string
	Status  int
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"currency": func(v any) string {
			switch x := v.(type) {
			case core.Amount:
				return core.FormatCurrency(string(x))
			case decimal.Decimal:
				return core.FormatDecimal(x)
			case string:
				return core.FormatCurrency(x)
			case nil:
				return core.FormatCurrency("")
			}
			return core.FormatCurrency(fmt.Sprint(v))
		},
		"date":     s.dates.Date,
		"datetime": s.dates.DateTime,
		"ago": func(ts string) string {
			return s.dates.Ago(ts, s.now())
		},
		"title": core.Title,
		"statusClass": func(status string) string {
			return "status-" + string(core.ClassifyStatus(status))
		},
		"txnClass": func(txn string) string {
			return "txn-" + string(core.ClassifyTxn(txn))
		},
		"count": func(n int) string { return humanize.Comma(int64(n)) },
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
		"dict": dict,
		"orDash": func(v string) string {
			if v == "" {
				return core.Placeholder
			}
			return v
		},
	}
}

// dict builds a map from alternating keys and values so a partial can
// take more than one argument.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func (s *Server) parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(s.funcs()).ParseFS(fsys,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render writes a page, or only its content block for htmx requests. The
// output is buffered so a template failure never sends half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	ctx := r.Context()
	t, ok := s.pages[name]
	if !ok {
		log.FromContext(ctx).WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Unknown template",
			log.FieldOperation, log.OpRender, "template", name)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	if p.Session == nil {
		p.Session = session.FromContext(ctx)
	}
	if p.Now.IsZero() {
		p.Now = s.now()
	}

	block := "layout"
	if IsHTMX(r) {
		block = "content"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, p); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentTemplate)).
			LogError(ctx, "Template execution failed", err, log.OpRender, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		InternalServerError("Something went wrong").Write(w)
		return
	}
	resp := NewHTMXResponse().
		Status(status).
		Header("Content-Type", "text/html; charset=utf-8").
		Body(buf.Bytes())
	if p.Notice != "" && IsHTMX(r) {
		resp.TriggerWarningNotification(p.Notice)
	}
	resp.Write(w)
}

// fetch runs build under the Inflight registry for (session, view) with
// the request timeout. A result superseded by a newer request yields
// services.ErrStale for htmx requests; a full page load is rebuilt
// instead, since the browser still needs a body.
func fetch[T any](s *Server, r *http.Request, view string, build func(context.Context) (T, error)) (T, error) {
	sess := session.FromContext(r.Context())
	ctx, ticket := s.inflight.Begin(r.Context(), services.Key(sess.ID, view))
	defer ticket.Done()

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, err := build(tctx)
	if ticket.Current() && !errors.Is(context.Cause(tctx), services.ErrStale) {
		return v, err
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Discarding superseded result",
		"view", view, log.FieldGeneration, ticket.Generation())
	if IsHTMX(r) || r.Context().Err() != nil {
		var zero T
		return zero, services.ErrStale
	}
	rctx, rcancel := context.WithTimeout(r.Context(), s.timeout)
	defer rcancel()
	return build(rctx)
}

// outcome maps a build error onto a page status and banner. It returns
// false when the response is already settled: the request was superseded
// or the client went away.
func (s *Server) outcome(w http.ResponseWriter, r *http.Request, err error) (int, *errorBanner, bool) {
	if err == nil {
		return http.StatusOK, nil, true
	}
	ctx := r.Context()
	if errors.Is(err, services.ErrStale) {
		StaleResponse().Write(w)
		return 0, nil, false
	}
	if ctx.Err() != nil {
		// Nobody is listening.
		return 0, nil, false
	}

	logger := log.FromContext(ctx)
	banner := &errorBanner{Retry: r.URL.RequestURI()}
	switch {
	case errors.Is(err, core.ErrEmptyGSTIN):
		banner.Status = http.StatusBadRequest
		banner.Message = "A GSTIN is required."
		banner.Retry = ""
	case errors.Is(err, context.DeadlineExceeded):
		banner.Status = http.StatusGatewayTimeout
		banner.Message = "The GST service took too long to respond."
	case errors.Is(err, api.ErrRequestFailed):
		banner.Status = http.StatusBadGateway
		banner.Message = fmt.Sprintf("The GST service returned an error (status %d).", api.StatusCode(err))
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrMalformedResponse):
		banner.Status = http.StatusBadGateway
		banner.Message = "Could not load data from the GST service."
	default:
		banner.Status = http.StatusInternalServerError
		banner.Message = "Something went wrong while loading this page."
	}

	fields := log.NewFields().WithError(err)
	fields[log.FieldStatusCode] = banner.Status
	if banner.Status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Page data failed to load", fields.ToSlice()...)
	} else {
		logger.WarnContext(ctx, "Page request rejected", fields.ToSlice()...)
	}
	return banner.Status, banner, true
}
