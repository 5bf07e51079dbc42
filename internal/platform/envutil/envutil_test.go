package envutil

import (
	"reflect"
	"testing"
)

func TestStr(t *testing.T) {
	t.Setenv("TEST_STR", "  value  ")
	if got := Str("TEST_STR", "def"); got != "value" {
		t.Fatalf("Str = %q", got)
	}
	if got := Str("TEST_STR_UNSET", "def"); got != "def" {
		t.Fatalf("Str default = %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := Int("TEST_INT", 7); got != 42 {
		t.Fatalf("Int = %d", got)
	}
	t.Setenv("TEST_INT", "nonsense")
	if got := Int("TEST_INT", 7); got != 7 {
		t.Fatalf("Int fallback = %d", got)
	}
	if got := Int("TEST_INT_UNSET", 7); got != 7 {
		t.Fatalf("Int default = %d", got)
	}
}

func TestBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "On"} {
		t.Setenv("TEST_BOOL", v)
		if !Bool("TEST_BOOL", false) {
			t.Fatalf("Bool(%q) should be true", v)
		}
	}
	for _, v := range []string{"0", "false", "no", "OFF"} {
		t.Setenv("TEST_BOOL", v)
		if Bool("TEST_BOOL", true) {
			t.Fatalf("Bool(%q) should be false", v)
		}
	}
	t.Setenv("TEST_BOOL", "maybe")
	if !Bool("TEST_BOOL", true) {
		t.Fatal("unrecognized value should fall back to default")
	}
}

func TestList(t *testing.T) {
	t.Setenv("TEST_LIST", "a, b ,,c")
	if got := List("TEST_LIST", nil); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("List = %v", got)
	}
	def := []string{"x"}
	if got := List("TEST_LIST_UNSET", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("List default = %v", got)
	}
	t.Setenv("TEST_LIST", " , ,")
	if got := List("TEST_LIST", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("List of empties should fall back, got %v", got)
	}
}
