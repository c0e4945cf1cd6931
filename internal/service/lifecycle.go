package service

import "go-gearbox-mes/internal/model"

// allowedTransitions is the lifecycle table. Scrap is handled separately:
// any non-terminal state may transition to scrapped.
var allowedTransitions = map[model.UnitStatus][]model.UnitStatus{
	model.StatusProducing:              {model.StatusPendingFinalInspection},
	model.StatusPendingFinalInspection: {model.StatusInStock, model.StatusRevisionReturn},
	model.StatusInStock:                {model.StatusShipped},
	model.StatusShipped:                {model.StatusInstalled},
	model.StatusRevisionReturn:         {model.StatusPendingFinalInspection, model.StatusProducing},
}

// TransitionAllowed reports whether from -> to appears in the lifecycle
// table. It covers only the table itself; target-specific guards (inspection
// verdicts, shipment membership, assembly records) are checked by the
// lifecycle service.
func TransitionAllowed(from, to model.UnitStatus) bool {
	if to == model.StatusScrapped {
		return !from.IsTerminal()
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
