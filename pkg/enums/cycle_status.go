package enums

import "slices"

// CycleStatus tracks where a cycle sits in its sales round.
type CycleStatus string

const (
	CycleStatusOffer       CycleStatus = "oferta"
	CycleStatusComposition CycleStatus = "composicao"
	CycleStatusExtra       CycleStatus = "extra"
	CycleStatusPickup      CycleStatus = "retirada"
	CycleStatusFinished    CycleStatus = "finalizado"
)

// cyclePhases is ordered; a cycle only ever moves one step forward.
var cyclePhases = []CycleStatus{
	CycleStatusOffer,
	CycleStatusComposition,
	CycleStatusExtra,
	CycleStatusPickup,
	CycleStatusFinished,
}

func (s CycleStatus) IsValid() bool { return slices.Contains(cyclePhases, s) }

func ParseCycleStatus(value string) (CycleStatus, error) {
	return parse("cycle status", value, cyclePhases)
}

// Next returns the phase after s. ok is false for finalizado and unknown values.
func (s CycleStatus) Next() (next CycleStatus, ok bool) {
	i := slices.Index(cyclePhases, s)
	if i < 0 || i == len(cyclePhases)-1 {
		return "", false
	}
	return cyclePhases[i+1], true
}
