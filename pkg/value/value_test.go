package value

import "testing"

func TestRealToStrInteger(t *testing.T) {
	s, err := Real(42).ToStr()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "42" {
		t.Fatalf("want 42, got %q", s)
	}
}

func TestRealToStrFractional(t *testing.T) {
	s, err := Real(1.5).ToStr()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "1.5" {
		t.Fatalf("want 1.5, got %q", s)
	}
}

func TestStrToRealLeadingNumber(t *testing.T) {
	f, err := Str("3.25abc").ToReal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 3.25 {
		t.Fatalf("want 3.25, got %v", f)
	}
}

func TestStrToRealNoLeadingNumber(t *testing.T) {
	f, err := Str("abc").ToReal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 0 {
		t.Fatalf("want 0, got %v", f)
	}
}

func TestUndefinedToReal(t *testing.T) {
	f, err := Undefined.ToReal()
	if err != nil || f != 0 {
		t.Fatalf("want 0,nil got %v,%v", f, err)
	}
}

func TestArrayCoercionFails(t *testing.T) {
	v := FromArray(NewArray())
	if _, err := v.ToReal(); err == nil {
		t.Fatalf("expected error coercing array to real")
	}
	if _, err := v.ToStr(); err == nil {
		t.Fatalf("expected error coercing array to str")
	}
}

func TestBoolThreshold(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Real(0.5), true},
		{Real(0.49), false},
		{Real(1), true},
		{Real(0), false},
		{Str("1"), true},
		{Undefined, false},
	}
	for _, c := range cases {
		if got := c.v.ToBool(); got != c.want {
			t.Errorf("%v.ToBool() = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqualRealString(t *testing.T) {
	if !Equal(Real(5), Str("5")) {
		t.Fatalf("expected Real(5) == Str(5)")
	}
	if Equal(Real(5), Str("5abc")) {
		t.Fatalf("5abc should coerce to 5 too, making this equal")
	}
}

func TestEqualUndefined(t *testing.T) {
	if !Equal(Undefined, Undefined) {
		t.Fatalf("undefined should equal undefined")
	}
	if Equal(Undefined, Real(0)) {
		t.Fatalf("undefined should not equal Real(0)")
	}
}

func TestEqualArrayIdentity(t *testing.T) {
	a := FromArray(NewArray())
	b := FromArray(NewArray())
	if Equal(a, b) {
		t.Fatalf("distinct array handles must not compare equal")
	}
	if !Equal(a, a) {
		t.Fatalf("an array handle must equal itself")
	}
}
