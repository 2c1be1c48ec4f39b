package doses

type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
)

// Terminal indica si el estado ya no admite transición.
func (s Status) Terminal() bool {
	return s == StatusTaken || s == StatusMissed
}

func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)
