package service

import (
	"testing"

	"go-gearbox-mes/internal/model"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to model.UnitStatus
		want     bool
	}{
		{model.StatusProducing, model.StatusPendingFinalInspection, true},
		{model.StatusPendingFinalInspection, model.StatusInStock, true},
		{model.StatusPendingFinalInspection, model.StatusRevisionReturn, true},
		{model.StatusInStock, model.StatusShipped, true},
		{model.StatusShipped, model.StatusInstalled, true},
		{model.StatusRevisionReturn, model.StatusPendingFinalInspection, true},
		{model.StatusRevisionReturn, model.StatusProducing, true},

		// no skipping or going backwards
		{model.StatusProducing, model.StatusInStock, false},
		{model.StatusProducing, model.StatusShipped, false},
		{model.StatusInStock, model.StatusProducing, false},
		{model.StatusInStock, model.StatusInstalled, false},
		{model.StatusShipped, model.StatusInStock, false},
		{model.StatusPendingFinalInspection, model.StatusProducing, false},
	}
	for _, tc := range cases {
		if got := TransitionAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("TransitionAllowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionAllowedScrap(t *testing.T) {
	nonTerminal := []model.UnitStatus{
		model.StatusProducing,
		model.StatusPendingFinalInspection,
		model.StatusInStock,
		model.StatusShipped,
		model.StatusRevisionReturn,
	}
	for _, from := range nonTerminal {
		if !TransitionAllowed(from, model.StatusScrapped) {
			t.Errorf("scrap from %s should be allowed", from)
		}
	}

	for _, from := range []model.UnitStatus{model.StatusInstalled, model.StatusScrapped} {
		if TransitionAllowed(from, model.StatusScrapped) {
			t.Errorf("scrap from terminal %s should be rejected", from)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []model.UnitStatus{
		model.StatusProducing,
		model.StatusPendingFinalInspection,
		model.StatusInStock,
		model.StatusShipped,
		model.StatusInstalled,
		model.StatusRevisionReturn,
		model.StatusScrapped,
	}
	for _, from := range []model.UnitStatus{model.StatusInstalled, model.StatusScrapped} {
		for _, to := range all {
			if TransitionAllowed(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}
