package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSaleCancelDeltas(t *testing.T) {
	cases := []struct {
		name        string
		net         string
		prev        string
		paid        string
		wantStaff   string
		wantClient  string
	}{
		{"partially paid", "250", "0", "200", "-200", "50"},
		{"fully paid", "250", "0", "250", "-250", "0"},
		{"unpaid", "250", "0", "0", "0", "250"},
		{"overpaid", "250", "0", "300", "-300", "-50"},
		{"previous balance absorbed", "250", "100", "100", "-100", "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			staffDelta, clientDelta := saleCancelDeltas(dec(tc.net), dec(tc.prev), dec(tc.paid))
			if !staffDelta.Equal(dec(tc.wantStaff)) {
				t.Errorf("staff delta = %s, want %s", staffDelta, tc.wantStaff)
			}
			if !clientDelta.Equal(dec(tc.wantClient)) {
				t.Errorf("client delta = %s, want %s", clientDelta, tc.wantClient)
			}
		})
	}
}

func TestSaleCancelNegatesPosting(t *testing.T) {
	cases := []struct {
		net  string
		prev string
		paid string
	}{
		{"250", "0", "200"},
		{"1000", "150", "400"},
		{"99.99", "0", "0"},
		{"250", "0", "300"},
	}
	for _, tc := range cases {
		net, prev, paid := dec(tc.net), dec(tc.prev), dec(tc.paid)

		// Posting: staff box takes the collected cash, the buyer's box takes
		// the signed remainder as debt or credit.
		staffBox := paid
		clientBox := net.Sub(prev).Sub(paid).Neg()

		staffDelta, clientDelta := saleCancelDeltas(net, prev, paid)
		if !staffBox.Add(staffDelta).IsZero() {
			t.Errorf("net=%s paid=%s: staff box nets to %s, want 0", tc.net, tc.paid, staffBox.Add(staffDelta))
		}
		if !clientBox.Add(clientDelta).IsZero() {
			t.Errorf("net=%s paid=%s: client box nets to %s, want 0", tc.net, tc.paid, clientBox.Add(clientDelta))
		}
	}
}

func TestInstallmentSaleCancelNetsToZero(t *testing.T) {
	cases := []struct {
		name     string
		total    string
		down     string
		payments []string
	}{
		{"no collections", "1000", "100", nil},
		{"partly collected", "1000", "100", []string{"200", "150"}},
		{"fully collected", "1000", "100", []string{"900"}},
		{"no down payment", "500", "0", []string{"50"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, down := dec(tc.total), dec(tc.down)
			debt := total.Sub(down)

			// Posting: staff box takes the down payment, the buyer's box takes
			// the financed amount as debt. Each collection credits both boxes.
			staffBox := down
			clientBox := debt.Neg()
			totalPaid := decimal.Zero
			for _, p := range tc.payments {
				staffBox = staffBox.Add(dec(p))
				clientBox = clientBox.Add(dec(p))
				totalPaid = totalPaid.Add(dec(p))
			}

			staffDelta, clientDelta := installmentUnwindDeltas(debt, totalPaid, down)
			if !staffBox.Add(staffDelta).IsZero() {
				t.Errorf("staff box nets to %s, want 0", staffBox.Add(staffDelta))
			}
			if !clientBox.Add(clientDelta).IsZero() {
				t.Errorf("client box nets to %s, want 0", clientBox.Add(clientDelta))
			}
		})
	}
}
