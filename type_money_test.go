package progfin

import (
	"encoding/json"
	"testing"
)

func TestMoneyString(t *testing.T) {
	if got, want := usd(1234.56).String(), "$1,234.56"; got != want {
		t.Errorf("String = %s, want %s", got, want)
	}
	if got, want := usd(-50).String(), "-$50.00"; got != want {
		t.Errorf("String = %s, want %s", got, want)
	}
}

func TestMoneySignedString(t *testing.T) {
	if got, want := usd(10).SignedString(), "+$10.00"; got != want {
		t.Errorf("positive = %s, want %s", got, want)
	}
	if got, want := usd(-10).SignedString(), "-$10.00"; got != want {
		t.Errorf("negative = %s, want %s", got, want)
	}
	if got, want := usd(0).SignedString(), "-"; got != want {
		t.Errorf("zero = %s, want %s", got, want)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got, want := usd(10).Add(usd(2.5)), usd(12.5); !got.Equal(want) {
		t.Errorf("Add = %s, want %s", got, want)
	}
	if got, want := usd(10).Sub(usd(2.5)), usd(7.5); !got.Equal(want) {
		t.Errorf("Sub = %s, want %s", got, want)
	}
	if got, want := usd(-3).Abs(), usd(3); !got.Equal(want) {
		t.Errorf("Abs = %s, want %s", got, want)
	}
	if got, want := usd(1.005).Round2(), usd(1.01); !got.Equal(want) {
		t.Errorf("Round2 = %s, want %s", got, want)
	}
}

func TestMoneyWeakEmptyCurrency(t *testing.T) {
	got := Money{}.Add(usd(5))
	if got.Currency() != "USD" {
		t.Errorf("currency = %s, want USD", got.Currency())
	}

	defer func() {
		if recover() == nil {
			t.Error("mixing USD and EUR must panic")
		}
	}()
	usd(1).Add(M(1, "EUR"))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(usd(1234.5))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `{"currency":"USD","amount":"1234.5"}`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}

	var back Money
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(usd(1234.5)) {
		t.Errorf("round trip = %s, want %s", back, usd(1234.5))
	}
}

func TestPercentString(t *testing.T) {
	if got, want := Percent(12.345).String(), "12.35%"; got != want {
		t.Errorf("String = %s, want %s", got, want)
	}
	if got, want := Percent(-3).SignedString(), "-3.00%"; got != want {
		t.Errorf("SignedString = %s, want %s", got, want)
	}
	if got, want := Percent(0).SignedString(), "-"; got != want {
		t.Errorf("zero = %s, want %s", got, want)
	}
}
