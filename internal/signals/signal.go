// Package signals derives prioritized fraud signals from the device registry
// and duplicate evidence. Signals are regenerated on every call.
package signals

import "time"

// Type classifies a signal.
type Type string

const (
	TypeDuplicateDevice Type = "DUPLICATE_DEVICE"
	TypeMultiInsurer    Type = "MULTI_INSURER"
	TypeVelocity        Type = "VELOCITY"
)

// Severity ranks signals for triage.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

func (s Severity) rank() int {
	if s == SeverityHigh {
		return 2
	}
	return 1
}

// SourceDuplicateDevices marks signals derived from duplicate evidence.
const SourceDuplicateDevices = "DUPLICATE_DEVICES"

// LinkedEntity identifies what a signal is about.
type LinkedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Signal is an ephemeral triage alert.
type Signal struct {
	ID           string       `json:"id"`
	Type         Type         `json:"type"`
	Severity     Severity     `json:"severity"`
	Source       string       `json:"source"`
	LinkedEntity LinkedEntity `json:"linked_entity"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}

// MonthCount is one bucket of SummarizeByMonth.
type MonthCount struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// SummarizeByMonth counts signals per "Jan 2026" label in first-seen order.
func SummarizeByMonth(list []Signal) []MonthCount {
	out := make([]MonthCount, 0)
	index := make(map[string]int)
	for _, s := range list {
		label := s.CreatedAt.UTC().Format("Jan 2006")
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, MonthCount{Label: label})
		}
		out[i].Value++
	}
	return out
}
