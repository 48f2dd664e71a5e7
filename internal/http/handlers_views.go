package http

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"gstdash/internal/core"
	"gstdash/internal/export"
	"gstdash/internal/log"
	"gstdash/internal/services"
	"gstdash/internal/table"
)

// View names for the Inflight registry.
const (
	viewVendors        = "vendors"
	viewFilings        = "filings"
	viewVendorSelector = "vendor-selector"
	viewVendorDetails  = "vendor-details"
)

// vendorsPage adds paging links to a vendor list.
type vendorsPage struct {
	services.VendorList
	Links services.Links
}

func (v vendorsPage) PageURL(n int) string {
	if n <= 1 {
		return v.Links.With(services.ParamPage, "")
	}
	return v.Links.With(services.ParamPage, strconv.Itoa(n))
}

func (v vendorsPage) PrevURL() string { return v.PageURL(v.Page - 1) }
func (v vendorsPage) NextURL() string { return v.PageURL(v.Page + 1) }
func (v vendorsPage) LastURL() string { return v.PageURL(v.LastPage) }

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, filter := ParsePage(q), ParseFilter(q)

	list, err := fetch(s, r, viewVendors, func(ctx context.Context) (services.VendorList, error) {
		return s.vendors.List(ctx, pageNum, filter)
	})
	status, banner, ok := s.outcome(w, r, err)
	if !ok {
		return
	}

	links := services.Links{Path: "/vendors", Extra: url.Values{}}
	if list.Filter != "" {
		links.Extra.Set(services.ParamFilter, list.Filter)
	}
	if list.Paginated && list.Page > 1 {
		links.Extra.Set(services.ParamPage, strconv.Itoa(list.Page))
	}
	s.render(w, r, status, pageVendors, page{
		Title: "Vendors",
		Nav:   "vendors",
		Error: banner,
		Data:  vendorsPage{VendorList: list, Links: links},
	})
}

func (s *Server) handleAllFilings(w http.ResponseWriter, r *http.Request) {
	s.serveFilings(w, r, "", "/all-filings")
}

func (s *Server) handleVendorFilings(w http.ResponseWriter, r *http.Request) {
	gstin := r.PathValue("gstin")
	s.serveFilings(w, r, gstin, "/gst-filings/"+url.PathEscape(gstin))
}

func (s *Server) serveFilings(w http.ResponseWriter, r *http.Request, gstin, path string) {
	req := parseFilingsRequest(r, gstin)
	view, err := fetch(s, r, viewFilings, func(ctx context.Context) (services.FilingsView, error) {
		return s.filings.Build(ctx, req, path)
	})
	status, banner, ok := s.outcome(w, r, err)
	if !ok {
		return
	}

	title := "All filings"
	nav := "all-filings"
	if gstin != "" {
		title = "Filings for " + gstin
		if len(view.Filings) > 0 && view.Filings[0].VendorName != "" {
			title = "Filings for " + view.Filings[0].VendorName
		}
		nav = "vendors"
	}
	s.render(w, r, status, pageFilings, page{Title: title, Nav: nav, Error: banner, Data: view})
}

func (s *Server) handleVendorSelector(w http.ResponseWriter, r *http.Request) {
	filter := ParseFilter(r.URL.Query())
	sel, err := fetch(s, r, viewVendorSelector, func(ctx context.Context) (services.VendorSelector, error) {
		return s.vendors.Selector(ctx, filter)
	})
	status, banner, ok := s.outcome(w, r, err)
	if !ok {
		return
	}
	sel.Filter = filter
	s.render(w, r, status, pageVendorSelector, page{
		Title: "Vendor details",
		Nav:   "vendor-details",
		Error: banner,
		Data:  sel,
	})
}

func (s *Server) handleVendorDetails(w http.ResponseWriter, r *http.Request) {
	gstin := r.PathValue("gstin")
	req := parseDetailsRequest(r, gstin)
	path := "/vendor-details/" + url.PathEscape(gstin)

	d, err := fetch(s, r, viewVendorDetails, func(ctx context.Context) (services.VendorDetails, error) {
		return s.details.Build(ctx, req, path)
	})
	// Every part failing is an outage; a partial failure renders per part.
	if err == nil && d.Failed() {
		err = d.Err()
	}
	status, banner, ok := s.outcome(w, r, err)
	if !ok {
		return
	}

	title := gstin
	if d.VendorKnown && d.Vendor.Name != "" {
		title = d.Vendor.Name
	}
	var notice string
	if banner == nil && d.Err() != nil {
		notice = "Some vendor details could not be loaded."
	}
	s.render(w, r, status, pageVendorDetails, page{
		Title:  title,
		Nav:    "vendor-details",
		Error:  banner,
		Data:   d,
		Notice: notice,
	})
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "", "all-filings.xlsx")
}

func (s *Server) handleExportVendor(w http.ResponseWriter, r *http.Request) {
	gstin := r.PathValue("gstin")
	if err := core.ValidateGSTIN(gstin); err != nil {
		BadRequestError("A GSTIN is required").Write(w)
		return
	}
	s.serveExport(w, r, gstin, "gst-filings-"+safeFilename(gstin)+".xlsx")
}

// serveExport writes the filings workbook, ordered like the page it was
// requested from.
func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, gstin, filename string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	logger := log.FromContext(ctx)

	filings, err := s.filings.Fetch(ctx, gstin)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status, banner, _ := s.outcome(w, r, err)
		ErrorResponse(status, banner.Message).Write(w)
		return
	}
	filings = table.Filings.Sort(filings, ParseSort(r, services.ParamSort, table.Filings))

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, filings); err != nil {
		log.NewStructuredLogger(logger).LogError(ctx, "Workbook generation failed", err, log.OpExport,
			log.LogFields{log.FieldCount: len(filings)})
		InternalServerError("Could not generate the workbook").Write(w)
		return
	}
	logger.InfoContext(ctx, "Filings exported",
		log.FieldOperation, log.OpExport, log.FieldGSTIN, gstin, log.FieldCount, len(filings))

	NewHTMXResponse().
		Header("Content-Type", export.ContentTypeXLSX).
		Header("Content-Disposition", `attachment; filename="`+filename+`"`).
		Header("Content-Length", strconv.Itoa(buf.Len())).
		Body(buf.Bytes()).
		Write(w)
}

// safeFilename keeps letters and digits only.
func safeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}
