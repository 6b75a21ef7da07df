package model

import (
	"time"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/shopspring/decimal"
)

// Project is a row of the Projetos table. ID is the de facto primary key.
type Project struct {
	StartDate    time.Time
	EndDate      time.Time
	Area         decimal.NullDecimal
	Total        decimal.NullDecimal
	Installments *int
	Extra        map[string]string
	ID           string
	Client       string
	Location     string
	Signage      string
	Post         string
	Contract     string
	Status       ProjectStatus
	Briefing     string
	Architect    string
	Type         string
	Package      string
	Electrical   string
	Hydraulic    string
	Modeling     string
	Detailing    string
}

// Values implements the serializer input for a project row.
func (p Project) Values() Values {
	v := extraValues(p.Extra)
	v[ColProject] = p.ID
	v[ColClient] = p.Client
	v[ColLocation] = p.Location
	v[ColSignage] = p.Signage
	v[ColPost] = p.Post
	v[ColStartDate] = p.StartDate
	v[ColEndDate] = p.EndDate
	v[ColContract] = p.Contract
	v[ColStatus] = string(p.Status)
	v[ColBriefing] = p.Briefing
	v[ColArchitect] = p.Architect
	v[ColType] = p.Type
	v[ColPackage] = p.Package
	v[ColArea] = p.Area
	v[ColInstallments] = p.Installments
	v[ColTotal] = p.Total
	v[ColElectrical] = p.Electrical
	v[ColHydraulic] = p.Hydraulic
	v[ColModeling] = p.Modeling
	v[ColDetailing] = p.Detailing
	return v
}

// ProjectFromRecord parses a wire record.
func ProjectFromRecord(rec Record) Project {
	start, _ := codec.ParseDate(rec[ColStartDate])
	end, _ := codec.ParseDate(rec[ColEndDate])

	var installments *int
	if n, ok := codec.ParseInt(rec[ColInstallments]); ok {
		installments = &n
	}

	return Project{
		ID:           rec[ColProject],
		Client:       rec[ColClient],
		Location:     rec[ColLocation],
		Signage:      rec[ColSignage],
		Post:         rec[ColPost],
		StartDate:    start,
		EndDate:      end,
		Contract:     rec[ColContract],
		Status:       ProjectStatus(rec[ColStatus]),
		Briefing:     rec[ColBriefing],
		Architect:    rec[ColArchitect],
		Type:         rec[ColType],
		Package:      rec[ColPackage],
		Area:         codec.ParseNullDecimal(rec[ColArea]),
		Installments: installments,
		Total:        codec.ParseNullDecimal(rec[ColTotal]),
		Electrical:   rec[ColElectrical],
		Hydraulic:    rec[ColHydraulic],
		Modeling:     rec[ColModeling],
		Detailing:    rec[ColDetailing],
		Extra:        extraColumns(rec, ProjectColumns),
	}
}

// Client is a row of the Clientes table.
type Client struct {
	Extra       map[string]string
	Name        string
	TaxID       string
	Address     string
	Contact     string
	InvoiceType string
}

// Values implements the serializer input for a client row.
func (c Client) Values() Values {
	v := extraValues(c.Extra)
	v[ColName] = c.Name
	v[ColTaxID] = c.TaxID
	v[ColAddress] = c.Address
	v[ColContact] = c.Contact
	v[ColInvoiceType] = c.InvoiceType
	return v
}

// ClientFromRecord parses a wire record.
func ClientFromRecord(rec Record) Client {
	return Client{
		Name:        rec[ColName],
		TaxID:       rec[ColTaxID],
		Address:     rec[ColAddress],
		Contact:     rec[ColContact],
		InvoiceType: rec[ColInvoiceType],
		Extra:       extraColumns(rec, ClientColumns),
	}
}

// Employee is a row of the Funcionarios table.
type Employee struct {
	Admission   time.Time
	Termination time.Time
	Salary      decimal.NullDecimal
	AreaRate    decimal.NullDecimal
	Extra       map[string]string
	Name        string
	TaxID       string
	Role        string
	Contact     string
	Address     string
}

// Values implements the serializer input for an employee row.
func (e Employee) Values() Values {
	v := extraValues(e.Extra)
	v[ColName] = e.Name
	v[ColTaxID] = e.TaxID
	v[ColRole] = e.Role
	v[ColAdmission] = e.Admission
	v[ColTermination] = e.Termination
	v[ColSalary] = e.Salary
	v[ColArea] = e.AreaRate
	v[ColContact] = e.Contact
	v[ColAddress] = e.Address
	return v
}

// EmployeeFromRecord parses a wire record.
func EmployeeFromRecord(rec Record) Employee {
	admission, _ := codec.ParseDate(rec[ColAdmission])
	termination, _ := codec.ParseDate(rec[ColTermination])
	return Employee{
		Name:        rec[ColName],
		TaxID:       rec[ColTaxID],
		Role:        rec[ColRole],
		Admission:   admission,
		Termination: termination,
		Salary:      codec.ParseNullDecimal(rec[ColSalary]),
		AreaRate:    codec.ParseNullDecimal(rec[ColArea]),
		Contact:     rec[ColContact],
		Address:     rec[ColAddress],
		Extra:       extraColumns(rec, EmployeeColumns),
	}
}
