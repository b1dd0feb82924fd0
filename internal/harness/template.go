package harness

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

// Data is what a driver template is rendered against. Args is the argument
// text when Input is a call expression such as "f([1])", else Input itself.
// Params holds the key=value parts of Input.
type Data struct {
	Source string
	Input  string
	Args   string
	Params map[string]string
}

var funcs = template.FuncMap{
	"param": func(key, def, input string) string { return Param(input, key, def) },
	"args":  func(fn, input string) string { return CallArgs(input, fn) },
}

// Driver is a compiled harness template with an optional match condition
type Driver struct {
	Name  string
	Match string
	tmpl  *template.Template
}

// Compile parses a declarative harness into a driver
func Compile(name string, h domain.Harness) (*Driver, error) {
	tmpl, err := template.New(name).Funcs(funcs).Parse(h.Template)
	if err != nil {
		return nil, fmt.Errorf("parse harness %s: %w", name, err)
	}
	return &Driver{Name: name, Match: h.Match, tmpl: tmpl}, nil
}

func mustCompile(name, match, text string) *Driver {
	d, err := Compile(name, domain.Harness{Match: match, Template: text})
	if err != nil {
		panic(err)
	}
	return d
}

// Matches reports whether the driver applies to source
func (d *Driver) Matches(source string) bool {
	return d.Match == "" || strings.Contains(source, d.Match)
}

// Render produces the program to submit
func (d *Driver) Render(source, input string) (string, error) {
	var b strings.Builder
	if err := d.tmpl.Execute(&b, Data{
		Source: source,
		Input:  input,
		Args:   Args(input),
		Params: Params(input),
	}); err != nil {
		return "", fmt.Errorf("render harness %s: %w", d.Name, err)
	}
	return b.String(), nil
}
