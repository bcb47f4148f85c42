package excel

import "planrec/domain/dataset"

// SheetNames maps each collection of the snapshot to its sheet in the workbook
type SheetNames struct {
	Users         string `json:"users"`
	Subscriptions string `json:"subscriptions"`
	Plans         string `json:"plans"`
	Logs          string `json:"logs"`
	Billing       string `json:"billing"`
}

// All returns the sheet names in load order
func (n SheetNames) All() []string {
	return []string{n.Users, n.Subscriptions, n.Plans, n.Logs, n.Billing}
}

// WorkbookConfig holds configuration for the workbook data source
type WorkbookConfig struct {
	FilePath    string     `json:"file_path"`
	Sheets      SheetNames `json:"sheets"`
	Concurrency int        `json:"concurrency"`
}

// DefaultWorkbookConfig returns the sheet layout of the subscription dataset
func DefaultWorkbookConfig() WorkbookConfig {
	return WorkbookConfig{
		Sheets: SheetNames{
			Users:         dataset.SheetUsers,
			Subscriptions: dataset.SheetSubscriptions,
			Plans:         dataset.SheetPlans,
			Logs:          dataset.SheetLogs,
			Billing:       dataset.SheetBilling,
		},
		Concurrency: 5,
	}
}
