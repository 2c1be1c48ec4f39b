package medications

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ComplianceScope elige la forma de adherencia.
type ComplianceScope string

const (
	ScopeToday ComplianceScope = "today" // tomadas hoy contra la meta diaria
	ScopeAll   ComplianceScope = "all"   // histórico sobre eventos resueltos
)
