package payroll

const (
	RecordStatusPending  = "pending"
	RecordStatusApproved = "approved"
	RecordStatusRejected = "rejected"
	RecordStatusBilled   = "billed"
	RecordStatusInvoiced = "invoiced"

	ViewByPerson           = "by_person"
	ViewProjectPersonDay   = "project_person_day"
	ViewPersonProjectDay   = "person_project_day"

	SortByName    = "name"
	SortByHours   = "hours"
	SortByCost    = "cost"
	SortByEntries = "entries"
)
