package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

func parse(t *testing.T, body string) (*RequestBodyParser, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), r)
	return p, p.Parse()
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
		has  bool
		list []string
		lkey string
	}{
		{name: "json string", body: `{"value":" 250.50 "}`, key: "value", want: "250.50", has: true},
		{name: "json number", body: `{"value":4}`, key: "value", want: "4", has: true},
		{name: "json bool", body: `{"checked":true}`, key: "checked", want: "true", has: true},
		{name: "json missing", body: `{"other":1}`, key: "value", want: "", has: false},
		{name: "form", body: "value=12&name=Home%01", key: "name", want: "Home", has: true},
		{name: "empty body", body: "", key: "value", want: "", has: false},
		{name: "json list", body: `{"grains":["rice"," ","maize"]}`, lkey: "grains", list: []string{"rice", "maize"}},
		{name: "json csv", body: `{"grains":"rice, maize"}`, lkey: "grains", list: []string{"rice", "maize"}},
		{name: "form csv", body: "grains=rice,maize&grains=oats", lkey: "grains", list: []string{"rice", "maize", "oats"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parse(t, tt.body)
			if err != nil {
				t.Fatal(err)
			}
			if tt.lkey != "" {
				if got := p.GetList(tt.lkey); !slices.Equal(got, tt.list) {
					t.Fatalf("GetList() = %v, want %v", got, tt.list)
				}
				return
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get() = %q, want %q", got, tt.want)
			}
			if got := p.Has(tt.key); got != tt.has {
				t.Errorf("Has() = %v, want %v", got, tt.has)
			}
		})
	}
}

func TestRequestBodyParserRejectsMalformed(t *testing.T) {
	for _, body := range []string{`{"value":`, "%zz", strings.Repeat("a", maxBodyBytes+1)} {
		if _, err := parse(t, body); !errors.Is(err, errBadRequest) {
			t.Errorf("body %.20q: expected bad request, got %v", body, err)
		}
	}
}

func TestTypedGetters(t *testing.T) {
	p, err := parse(t, `{"lat":-26.2,"checked":"yes","ok":"false"}`)
	if err != nil {
		t.Fatal(err)
	}
	if p.GetFloat("lat") != -26.2 || p.GetFloat("missing") != 0 {
		t.Fatal("unexpected float values")
	}
	if _, ok := p.GetBool("checked"); ok {
		t.Fatal("yes is not a boolean")
	}
	if v, ok := p.GetBool("ok"); !ok || v {
		t.Fatal("expected false")
	}
}
