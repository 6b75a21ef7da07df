package model

// Logical table names, as used for worksheet titles.
const (
	TableRevenues          = "Receitas"
	TableExpenses          = "Despesas"
	TableProjects          = "Projetos"
	TableClients           = "Clientes"
	TableEmployees         = "Funcionarios"
	TableRevenueCategories = "Categorias_Receitas"
	TableExpenseCategories = "Categorias_Despesas"
	TableSuppliers         = "Fornecedor_Despesas"
)

// Column names shared across tables.
const (
	ColDescription   = "Descrição"
	ColProject       = "Projeto"
	ColCategory      = "Categoria"
	ColTotal         = "ValorTotal"
	ColPaymentMethod = "FormaPagamento"
	ColInvoice       = "NF"
	ColInstallments  = "Parcelas"
	ColArea          = "m2"
	ColName          = "Nome"
	ColTaxID         = "CPF"
	ColAddress       = "Endereço"
	ColContact       = "Contato"
)

// Revenue columns.
const (
	ColReceivedOn = "DataRecebimento"
)

// Expense columns.
const (
	ColPaidOn      = "DataPagamento"
	ColResponsible = "Responsável"
	ColSupplier    = "Fornecedor"
)

// Project columns.
const (
	ColClient      = "Cliente"
	ColLocation    = "Localizacao"
	ColSignage     = "Placa"
	ColPost        = "Post"
	ColStartDate   = "DataInicio"
	ColEndDate     = "DataFinal"
	ColContract    = "Contrato"
	ColStatus      = "Status"
	ColBriefing    = "Briefing"
	ColArchitect   = "Arquiteto"
	ColType        = "Tipo"
	ColPackage     = "Pacote"
	ColElectrical  = "ResponsávelElétrico"
	ColHydraulic   = "ResponsávelHidráulico"
	ColModeling    = "ResponsávelModelagem"
	ColDetailing   = "ResponsávelDetalhamento"
	ColInvoiceType = "TipoNF"
)

// Employee columns.
const (
	ColRole        = "Cargo"
	ColAdmission   = "Admissão"
	ColTermination = "Demissão"
	ColSalary      = "Salário Fixo"
)

// Expected column order per table.
var (
	RevenueColumns = []string{
		ColReceivedOn, ColDescription, ColProject, ColCategory, ColTotal, ColPaymentMethod, ColInvoice,
	}
	ExpenseColumns = []string{
		ColPaidOn, ColDescription, ColCategory, ColTotal, ColInstallments, ColPaymentMethod,
		ColResponsible, ColSupplier, ColProject, ColInvoice,
	}
	ProjectColumns = []string{
		ColProject, ColClient, ColLocation, ColSignage, ColPost, ColStartDate, ColEndDate, ColContract,
		ColStatus, ColBriefing, ColArchitect, ColType, ColPackage, ColArea, ColInstallments, ColTotal,
		ColElectrical, ColHydraulic, ColModeling, ColDetailing,
	}
	ClientColumns   = []string{ColName, ColTaxID, ColAddress, ColContact, ColInvoiceType}
	EmployeeColumns = []string{
		ColName, ColTaxID, ColRole, ColAdmission, ColTermination, ColSalary, ColArea, ColContact, ColAddress,
	}
	CategoryColumns = []string{ColCategory}
	SupplierColumns = []string{ColSupplier}
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project statuses offered by the project form.
const (
	StatusDone       ProjectStatus = "Concluído"
	StatusInProgress ProjectStatus = "Em Andamento"
	StatusTodo       ProjectStatus = "A fazer"
	StatusBlocked    ProjectStatus = "Impedido"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDone, StatusInProgress, StatusTodo, StatusBlocked:
		return true
	}
	return false
}
