package api

import (
	"net/http"
	"strconv"

	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/go-chi/chi/v5"
)

// FrameResponse is a table in JSON form.
type FrameResponse struct {
	Columns []string       `json:"columns"`
	Records []model.Record `json:"records"`
}

type replaceRequest struct {
	Rows []model.Values `json:"rows"`
}

type appendRequest struct {
	Values model.Values `json:"values"`
}

type deleteRequest struct {
	Indices []int `json:"indices"`
}

type vocabularyRequest struct {
	Value string `json:"value"`
}

func toResponse(frame model.Frame) FrameResponse {
	resp := FrameResponse{Columns: frame.Columns, Records: frame.Records}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Records == nil {
		resp.Records = []model.Record{}
	}
	return resp
}

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, s.tables.Registry().Names(), "")
}

// handleReadTable degrades to an empty table with a warning when the store
// cannot be read.
func (s *Server) handleReadTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	frame, err := s.tables.Read(r.Context(), table, force)
	message := ""
	if err != nil {
		message = "showing no data: " + err.Error()
	}
	writeData(w, http.StatusOK, toResponse(frame), message)
}

func (s *Server) handleReplaceTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req replaceRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if table == model.TableProjects {
		if err := finance.ValidateProjectIDs(recordsOf(req.Rows)); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := s.tables.WriteReplace(r.Context(), table, req.Rows); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"rows": len(req.Rows)}, "table replaced")
}

func (s *Server) handleAppendRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req appendRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Values) == 0 {
		writeJSONError(w, http.StatusBadRequest, "values are required")
		return
	}

	if err := s.tables.Append(r.Context(), table, req.Values); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, req.Values, "row appended")
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req deleteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.tables.Delete(r.Context(), table, req.Indices); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, req.Indices, "rows deleted")
}

func (s *Server) handleVerifyTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if err := s.tables.VerifyAndRepair(r.Context(), table); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, s.tables.Registry().Columns(table), "table conforms")
}

func (s *Server) handleAddVocabulary(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req vocabularyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.tables.AddVocabulary(r.Context(), table, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, req.Value, "value added")
}

// handleAggregate groups a table by ?by= and sums ?value= (ValorTotal by
// default), optionally within ?month= and ?year= of ?date=.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	query := r.URL.Query()

	by := query.Get("by")
	if by == "" {
		writeJSONError(w, http.StatusBadRequest, "by parameter is required")
		return
	}
	value := query.Get("value")
	if value == "" {
		value = model.ColTotal
	}

	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	frame, readErr := s.tables.Read(r.Context(), table, false)
	if !period.IsZero() {
		dateColumn := query.Get("date")
		if dateColumn == "" {
			dateColumn = dateColumnOf(table)
		}
		frame = finance.FilterByPeriod(frame, dateColumn, period)
	}

	writeData(w, http.StatusOK, finance.Aggregate(frame, by, value).Sorted(), warning(readErr))
}

func recordsOf(rows []model.Values) model.Frame {
	frame := model.Frame{Records: make([]model.Record, len(rows))}
	for i, row := range rows {
		frame.Records[i] = row.Record()
	}
	return frame
}

func dateColumnOf(table string) string {
	switch table {
	case model.TableRevenues:
		return model.ColReceivedOn
	case model.TableExpenses:
		return model.ColPaidOn
	case model.TableProjects:
		return model.ColStartDate
	}
	return ""
}

func warning(err error) string {
	if err == nil {
		return ""
	}
	return "partial data: " + err.Error()
}
