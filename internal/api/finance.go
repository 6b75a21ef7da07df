package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type installmentRequest struct {
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	Responsible   string          `json:"responsible"`
	Supplier      string          `json:"supplier"`
	Project       string          `json:"project"`
	Invoice       string          `json:"invoice"`
	Total         decimal.Decimal `json:"total"`
	Installments  int             `json:"installments"`
}

func (req installmentRequest) expense() (model.Expense, error) {
	paid, ok := codec.ParseDate(req.Date)
	if !ok {
		return model.Expense{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected DD/MM/YYYY", req.Date), nil)
	}
	return model.Expense{
		PaidOn:        paid,
		Amount:        decimal.NewNullDecimal(req.Total),
		Description:   req.Description,
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Responsible:   req.Responsible,
		Supplier:      req.Supplier,
		Project:       req.Project,
		Invoice:       req.Invoice,
	}, nil
}

func (s *Server) handleInstallments(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	expense, err := req.expense()
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := finance.AppendInstallments(r.Context(), s.tables, expense, req.Installments)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Values().Record()
	}
	writeData(w, http.StatusCreated, out, fmt.Sprintf("%d installment(s) created", len(rows)))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	revenues, expenses, readErr := s.readLedger(r)
	revenues = finance.FilterByPeriod(revenues, model.ColReceivedOn, period)
	expenses = finance.FilterByPeriod(expenses, model.ColPaidOn, period)

	writeData(w, http.StatusOK, finance.Summarize(revenues, expenses), warning(readErr))
}

// SeriesResponse holds the monthly totals of both ledgers.
type SeriesResponse struct {
	Revenues []finance.Group `json:"revenues"`
	Expenses []finance.Group `json:"expenses"`
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	revenues, expenses, readErr := s.readLedger(r)
	revenues = finance.FilterByPeriod(revenues, model.ColReceivedOn, period)
	expenses = finance.FilterByPeriod(expenses, model.ColPaidOn, period)

	writeData(w, http.StatusOK, SeriesResponse{
		Revenues: finance.MonthlySeries(revenues, model.ColReceivedOn, model.ColTotal),
		Expenses: finance.MonthlySeries(expenses, model.ColPaidOn, model.ColTotal),
	}, warning(readErr))
}

// handleProductivity needs a single ?month= and ?year=; both default to the
// current month.
func (s *Server) handleProductivity(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	month, year := now.Month(), now.Year()

	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(period.Months) > 1 || len(period.Years) > 1 {
		writeJSONError(w, http.StatusBadRequest, "productivity takes a single month and year")
		return
	}
	if len(period.Months) == 1 {
		month = period.Months[0]
	}
	if len(period.Years) == 1 {
		year = period.Years[0]
	}

	frame, readErr := s.tables.Read(r.Context(), model.TableProjects, false)
	result := finance.Productivity(finance.ProjectsFromFrame(frame), month, year, s.roster)
	writeData(w, http.StatusOK, result, warning(readErr))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	frame, err := s.tables.Read(r.Context(), model.TableProjects, false)
	if err != nil {
		writeError(w, err)
		return
	}

	_, project, err := finance.FindProject(frame, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, project.Values().Record(), "")
}

// handleUpdateProject replaces the fields of one project and rewrites the
// Projetos table. The body is a record keyed by column name.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var values model.Values
	if err := readJSON(w, r, &values); err != nil {
		writeError(w, err)
		return
	}

	frame, err := s.tables.Read(r.Context(), model.TableProjects, true)
	if err != nil {
		writeError(w, err)
		return
	}
	_, current, err := finance.FindProject(frame, id)
	if err != nil {
		writeError(w, err)
		return
	}

	merged := current.Values().Record()
	for k, v := range values.Record() {
		merged[k] = v
	}
	updated := model.ProjectFromRecord(merged)
	if strings.TrimSpace(updated.ID) != strings.TrimSpace(id) {
		writeJSONError(w, http.StatusBadRequest, "project id cannot be changed")
		return
	}

	rows, err := finance.UpdateProject(frame, updated)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.tables.WriteReplace(r.Context(), model.TableProjects, rows); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated.Values().Record(), "project updated")
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	revenues, expenses, readErr := s.readLedger(r)
	if readErr != nil {
		s.logger.Warn("Building report from partial data", "error", readErr)
	}

	name := fmt.Sprintf("relatorio_%s.xlsx", s.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := report.Write(w, revenues, expenses, period); err != nil {
		s.logger.Error("Failed to write report", "error", err)
	}
}

func (s *Server) readLedger(r *http.Request) (model.Frame, model.Frame, error) {
	revenues, revErr := s.tables.Read(r.Context(), model.TableRevenues, false)
	expenses, expErr := s.tables.Read(r.Context(), model.TableExpenses, false)
	if revErr != nil {
		return revenues, expenses, revErr
	}
	return revenues, expenses, expErr
}

// parsePeriod reads ?month= and ?year=, each a comma-separated list.
func parsePeriod(r *http.Request) (finance.Period, error) {
	var period finance.Period
	query := r.URL.Query()

	for _, part := range splitList(query.Get("month")) {
		m, err := strconv.Atoi(part)
		if err != nil || m < 1 || m > 12 {
			return finance.Period{}, common.NewUserError(fmt.Sprintf("invalid month %q", part), nil)
		}
		period.Months = append(period.Months, time.Month(m))
	}
	for _, part := range splitList(query.Get("year")) {
		y, err := strconv.Atoi(part)
		if err != nil || y < 1900 {
			return finance.Period{}, common.NewUserError(fmt.Sprintf("invalid year %q", part), nil)
		}
		period.Years = append(period.Years, y)
	}
	return period, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
