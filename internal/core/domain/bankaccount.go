package domain

// BankAccount is one configured bank account: its human-readable label, the
// IBAN the statement identifies it by, and the names of the lookup tables
// holding its chart of accounts and project list.
type BankAccount struct {
	Name          string `mapstructure:"name" json:"name"`
	IBAN          string `mapstructure:"iban" json:"iban"`
	TableAccounts string `mapstructure:"table_accounts" json:"tableAccounts"`
	TableProjects string `mapstructure:"table_projects" json:"tableProjects"`
}
