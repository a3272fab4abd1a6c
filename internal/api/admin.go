package api

import (
	"net/http"

	"github.com/dharsanguruparan/docflow/internal/model"
)

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	emp, err := s.svc.Employees.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, emp)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := s.svc.Employees.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, emp)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req updateEmployeeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.svc.Employees.Update(r.Context(), r.PathValue("id"), req.update())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleCreateHold(w http.ResponseWriter, r *http.Request) {
	var req createHoldRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.svc.Holds.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

func (s *Server) handleListHolds(w http.ResponseWriter, r *http.Request) {
	holds, err := s.svc.Holds.List(r.Context(), model.HoldStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if holds == nil {
		holds = []model.LegalHold{}
	}
	writeList(w, holds, len(holds), 0, len(holds), len(holds))
}

func (s *Server) handleGetHold(w http.ResponseWriter, r *http.Request) {
	hold, err := s.svc.Holds.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, hold)
}

func (s *Server) handleReleaseHold(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Holds.Release(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := s.svc.Policies.List(r.Context(), r.URL.Query().Get("jurisdiction"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if policies == nil {
		policies = []model.RetentionPolicy{}
	}
	writeList(w, policies, len(policies), 0, len(policies), len(policies))
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req createPolicyRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := s.svc.Policies.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req intakeSettingsRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	settings, err := s.svc.Settings.Update(r.Context(), req.settings())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}
