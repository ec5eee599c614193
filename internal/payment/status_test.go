package payment

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Status
	}{
		{in: "5", want: StatusPaid},
		{in: "success", want: StatusPaid},
		{in: "PAID", want: StatusPaid},
		{in: " Completed ", want: StatusPaid},
		{in: "3", want: StatusPending},
		{in: "created", want: StatusPending},
		{in: "WAITING", want: StatusPending},
		{in: "pending", want: StatusPending},
		{in: "4", want: StatusNotPaid},
		{in: "cancelled", want: StatusNotPaid},
		{in: "55", want: StatusNotPaid},
		{in: "", want: StatusNotPaid},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := DefaultPolicy.Classify(tc.in); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClassifyCustomPolicy(t *testing.T) {
	t.Parallel()

	strict := Policy{Paid: []string{"5"}}
	if got := strict.Classify("3"); got != StatusNotPaid {
		t.Fatalf("strict policy should fold 3 into not_paid, got %q", got)
	}
	if got := strict.Classify("5"); got != StatusPaid {
		t.Fatalf("strict policy should accept 5, got %q", got)
	}
}

func TestEvaluateDefaultMessages(t *testing.T) {
	t.Parallel()

	paid := DefaultPolicy.Evaluate(Info{Code: "5", Endpoint: "status"})
	if !paid.Success || paid.Status != StatusPaid || paid.Message != "Payment successful" || paid.Endpoint != "status" {
		t.Fatalf("unexpected paid result: %#v", paid)
	}

	pending := DefaultPolicy.Evaluate(Info{Code: "3", Message: "Создан"})
	if pending.Success || pending.Status != StatusPending || pending.Message != "Создан" {
		t.Fatalf("unexpected pending result: %#v", pending)
	}

	other := DefaultPolicy.Evaluate(Info{Code: "7"})
	if other.Success || other.Status != StatusNotPaid || other.Message != "Status: 7" {
		t.Fatalf("unexpected not_paid result: %#v", other)
	}
}
