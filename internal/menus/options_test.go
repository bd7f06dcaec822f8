package menus

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions(" footer ")
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	want := Options{MenuName: "footer", FromLevel: 0, ToLevel: 100, ExtraInactive: 0, ExtraActive: 1000, Template: DefaultTemplate}
	if opts != want {
		t.Fatalf("expected %#v, got %#v", want, opts)
	}
}

func TestParseOptionsPairs(t *testing.T) {
	opts, err := ParseOptions("main",
		"from_level", 1,
		"to_level", "3",
		"extra_inactive", int64(2),
		"template", "menu/custom.html",
		"namespace", "shop",
		"root_id", 42,
		"next_page", "page-2",
	)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if opts.FromLevel != 1 || opts.ToLevel != 3 || opts.ExtraInactive != 2 || opts.ExtraActive != 1000 {
		t.Fatalf("unexpected levels %#v", opts)
	}
	if opts.Template != "menu/custom.html" || opts.Namespace != "shop" || opts.RootID != "42" || opts.NextPage != "page-2" {
		t.Fatalf("unexpected options %#v", opts)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	cases := []struct {
		name   string
		menu   string
		args   []any
		option string
	}{
		{name: "missing name", menu: " ", option: "menu_name"},
		{name: "odd arguments", menu: "main", args: []any{"to_level"}, option: "arguments"},
		{name: "unknown key", menu: "main", args: []any{"depth", 2}, option: "depth"},
		{name: "non integer", menu: "main", args: []any{"to_level", "deep"}, option: "to_level"},
		{name: "negative", menu: "main", args: []any{"extra_active", -1}, option: "extra_active"},
		{name: "inverted levels", menu: "main", args: []any{"from_level", 3, "to_level", 1}, option: "to_level"},
		{name: "non string namespace", menu: "main", args: []any{"namespace", 3}, option: "namespace"},
		{name: "page layout template", menu: "main", args: []any{"template", PageTemplate}, option: "template"},
		{name: "partial template", menu: "main", args: []any{"template", "menu/nodes"}, option: "template"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptions(tc.menu, tc.args...)
			var optErr *OptionError
			if !errors.As(err, &optErr) {
				t.Fatalf("expected OptionError, got %v", err)
			}
			if optErr.Option != tc.option {
				t.Fatalf("expected option %q, got %q", tc.option, optErr.Option)
			}
		})
	}
}

func TestOptionsFromQuery(t *testing.T) {
	values := url.Values{
		"hl":        {"en"},
		"to_level":  {"1", "2"},
		"namespace": {"shop"},
	}
	opts, err := OptionsFromQuery("main", values)
	if err != nil {
		t.Fatalf("OptionsFromQuery: %v", err)
	}
	if opts.ToLevel != 2 || opts.Namespace != "shop" || opts.Template != DefaultTemplate {
		t.Fatalf("unexpected options %#v", opts)
	}

	if _, err := OptionsFromQuery("main", url.Values{"utm_source": {"x"}}); err == nil {
		t.Fatalf("expected unknown query option to be rejected")
	}
}
