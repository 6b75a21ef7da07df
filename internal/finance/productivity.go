package finance

import (
	"sort"
	"time"

	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/shopspring/decimal"
)

// Roster maps an employee name to the payout rate per square meter.
type Roster map[string]decimal.Decimal

// DefaultRoster is the roster used when none is configured.
func DefaultRoster() Roster {
	rate := decimal.RequireFromString("0.50")
	return Roster{"Bruno": rate, "Victor": rate, "Matheus": rate}
}

// EmployeeProductivity is one employee's total for a period.
type EmployeeProductivity struct {
	Name   string          `json:"name"`
	Area   decimal.Decimal `json:"area"`
	Rate   decimal.Decimal `json:"rate"`
	Payout decimal.Decimal `json:"payout"`
}

// Productivity sums project area per roster employee over projects started
// in the given month and year. A project counts for its modeling and its
// detailing responsible separately: when both name the same employee the
// area is credited twice. Projects without a valid area or start date are
// skipped. Every roster employee appears in the result, sorted by name.
func Productivity(projects []model.Project, month time.Month, year int, roster Roster) []EmployeeProductivity {
	area := make(map[string]decimal.Decimal, len(roster))
	for name := range roster {
		area[name] = decimal.Zero
	}

	for _, p := range projects {
		if !p.Area.Valid || p.StartDate.IsZero() {
			continue
		}
		if p.StartDate.Month() != month || p.StartDate.Year() != year {
			continue
		}
		for _, who := range []string{p.Modeling, p.Detailing} {
			if total, ok := area[who]; ok {
				area[who] = total.Add(p.Area.Decimal)
			}
		}
	}

	out := make([]EmployeeProductivity, 0, len(roster))
	for name, rate := range roster {
		out = append(out, EmployeeProductivity{
			Name:   name,
			Area:   area[name],
			Rate:   rate,
			Payout: area[name].Mul(rate).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ProjectsFromFrame parses every record of a Projetos frame.
func ProjectsFromFrame(frame model.Frame) []model.Project {
	projects := make([]model.Project, len(frame.Records))
	for i, rec := range frame.Records {
		projects[i] = model.ProjectFromRecord(rec)
	}
	return projects
}
