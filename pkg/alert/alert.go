package alert

import "time"

type Type string

const (
	LimitWarning Type = "LIMIT_WARNING"
	Critical     Type = "CRITICAL"
	Info         Type = "INFO"
)

func (t Type) IsValid() bool {
	switch t {
	case LimitWarning, Critical, Info:
		return true
	}
	return false
}

type Alert struct {
	Id          int
	UserId      int
	Type        Type
	Message     string
	Metadata    map[string]any
	Read        bool
	TriggeredAt time.Time
}
