package menus

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Option names accepted by ParseOptions and OptionsFromQuery.
const (
	OptionFromLevel     = "from_level"
	OptionToLevel       = "to_level"
	OptionExtraInactive = "extra_inactive"
	OptionExtraActive   = "extra_active"
	OptionTemplate      = "template"
	OptionNamespace     = "namespace"
	OptionRootID        = "root_id"
	OptionNextPage      = "next_page"
)

// DefaultTemplate is the inclusion template used when none is selected.
const DefaultTemplate = "menu/menu.html"

// PageTemplate is the page layout wrapping a rendered menu. It is not an
// inclusion template.
const PageTemplate = "menu/page.html"

var (
	errRequired    = errors.New("value is required")
	errUnknown     = errors.New("unknown option")
	errNotInteger  = errors.New("must be an integer")
	errNegative    = errors.New("must not be negative")
	errNotString   = errors.New("must be a string")
	errOddArgs     = errors.New("options must be key/value pairs")
	errKeyNotText  = errors.New("option name must be a string")
	errLevelsOrder = errors.New("must not be lower than from_level")
	errNotMenu     = errors.New("must name a menu inclusion template")
)

// Options configures one show_named_menu invocation.
type Options struct {
	MenuName      string
	FromLevel     int
	ToLevel       int
	ExtraInactive int
	ExtraActive   int
	Template      string
	Namespace     string
	RootID        string
	NextPage      any
}

// DefaultOptions returns the options used for keys that are not supplied.
func DefaultOptions(menuName string) Options {
	return Options{
		MenuName:      strings.TrimSpace(menuName),
		FromLevel:     0,
		ToLevel:       100,
		ExtraInactive: 0,
		ExtraActive:   1000,
		Template:      DefaultTemplate,
	}
}

// ParseOptions parses template keyword pairs such as
// `"namespace" "shop" "to_level" 2` on top of the defaults.
func ParseOptions(menuName string, args ...any) (Options, error) {
	opts := DefaultOptions(menuName)
	if len(args)%2 != 0 {
		return Options{}, &OptionError{Option: "arguments", Err: errOddArgs}
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return Options{}, &OptionError{Option: fmt.Sprint(args[i]), Err: errKeyNotText}
		}
		if err := opts.set(strings.TrimSpace(key), args[i+1]); err != nil {
			return Options{}, err
		}
	}
	return opts, opts.validate()
}

// OptionsFromQuery parses option query parameters. The hl language parameter is ignored.
func OptionsFromQuery(menuName string, values url.Values) (Options, error) {
	opts := DefaultOptions(menuName)
	for key, vals := range values {
		if key == "hl" || len(vals) == 0 {
			continue
		}
		if err := opts.set(key, vals[len(vals)-1]); err != nil {
			return Options{}, err
		}
	}
	return opts, opts.validate()
}

func (o *Options) set(key string, value any) error {
	var err error
	switch key {
	case OptionFromLevel:
		o.FromLevel, err = intOption(key, value)
	case OptionToLevel:
		o.ToLevel, err = intOption(key, value)
	case OptionExtraInactive:
		o.ExtraInactive, err = intOption(key, value)
	case OptionExtraActive:
		o.ExtraActive, err = intOption(key, value)
	case OptionTemplate:
		o.Template, err = stringOption(key, value)
		if err == nil && o.Template == "" {
			o.Template = DefaultTemplate
		}
	case OptionNamespace:
		o.Namespace, err = stringOption(key, value)
	case OptionRootID:
		o.RootID, err = idOption(key, value)
	case OptionNextPage:
		o.NextPage = value
	default:
		err = &OptionError{Option: key, Err: errUnknown}
	}
	return err
}

func (o Options) validate() error {
	if o.MenuName == "" {
		return &OptionError{Option: "menu_name", Err: errRequired}
	}
	if o.ToLevel < o.FromLevel {
		return &OptionError{Option: OptionToLevel, Value: o.ToLevel, Err: errLevelsOrder}
	}
	return checkTemplate(o.Template)
}

// checkTemplate accepts file-level *.html templates other than the page layout.
// Partials defined inside a file, such as menu/nodes, expect a different dot.
func checkTemplate(name string) error {
	if !strings.HasSuffix(name, ".html") || name == PageTemplate {
		return &OptionError{Option: OptionTemplate, Value: name, Err: errNotMenu}
	}
	return nil
}

func intOption(key string, value any) (int, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &OptionError{Option: key, Value: value, Err: errNotInteger}
		}
		n = parsed
	default:
		return 0, &OptionError{Option: key, Value: value, Err: errNotInteger}
	}
	if n < 0 {
		return 0, &OptionError{Option: key, Value: value, Err: errNegative}
	}
	return n, nil
}

func stringOption(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case nil:
		return "", nil
	default:
		return "", &OptionError{Option: key, Value: value, Err: errNotString}
	}
}

func idOption(key string, value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return stringOption(key, value)
	}
}
