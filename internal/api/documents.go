package api

import (
	"net/http"
	"strconv"

	"github.com/dharsanguruparan/docflow/internal/model"
)

func (s *Server) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	var req submitDocumentRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	view, err := s.svc.Documents.Submit(r.Context(), req.input())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, view)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.DocumentFilter{
		EmployeeID:   q.Get("employeeId"),
		Status:       model.DocumentStatus(q.Get("status")),
		DocumentType: q.Get("documentType"),
	}
	var errs []model.FieldError
	if v := q.Get("onHold"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "onHold", Message: "must be true or false"})
		}
		f.OnHold = &b
	}
	f.Limit, errs = intParam(q.Get("limit"), "limit", errs)
	f.Offset, errs = intParam(q.Get("offset"), "offset", errs)
	if len(errs) > 0 {
		writeError(w, r, s.log, model.NewValidationErrors(errs))
		return
	}
	f.Normalize()

	page, err := s.svc.Documents.List(r.Context(), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeList(w, page.Items, f.Limit, f.Offset, len(page.Items), page.Total)
}

func intParam(v, name string, errs []model.FieldError) (int, []model.FieldError) {
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, append(errs, model.FieldError{Field: name, Message: "must be a non-negative integer"})
	}
	return n, errs
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Documents.StartReview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Documents.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	view, err := s.svc.Documents.Reject(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleRecomputeRetention(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Documents.RecomputeRetention(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleExpire(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Documents.Expire(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, view)
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	url, exp, err := s.svc.Documents.DownloadURL(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, downloadURLResponse{URL: url, ExpiresAt: exp})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, errs := intParam(r.URL.Query().Get("limit"), "limit", nil)
	if len(errs) > 0 {
		writeError(w, r, s.log, model.NewValidationErrors(errs))
		return
	}
	entries, err := s.svc.Documents.Activity(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeList(w, entries, limit, 0, len(entries), len(entries))
}
