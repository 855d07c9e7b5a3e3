package tokenize

import (
	"reflect"
	"testing"
)

func TestFieldsPlain(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"", []string{""}},
		{"a,,c", []string{"a", "", "c"}},
		{`a,"b,c",d`, []string{"a", "b,c", "d"}},
		{`a,"he said ""hi""",b`, []string{"a", `he said "hi"`, "b"}},
	}
	for _, c := range cases {
		got := Fields(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Fields(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestBracketFields(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"1,[1,2,3],back", []string{"1", "[1,2,3]", "back"}},
		{"1,[[1,2],[3,4]],2", []string{"1", "[[1,2],[3,4]]", "2"}},
		{"a,b", []string{"a", "b"}},
		// Unbalanced closing bracket floors depth at 0 rather than going negative.
		{"a],b", []string{"a]", "b"}},
	}
	for _, c := range cases {
		got := BracketFields(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("BracketFields(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}
