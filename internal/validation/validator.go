package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// SchemaField is the error item used when the requested schema is unknown.
const SchemaField = "schema"

// Fields holds raw form values keyed by field name.
type Fields map[string]string

// Validator evaluates Fields against the schemas of a rule table.
// It is safe for concurrent use.
type Validator struct {
	table    *Table
	validate *validator.Validate
}

// NewValidator builds a Validator for table. Every tag in the table is
// compiled once so that a malformed table fails here instead of at save
// time.
func NewValidator(table *Table) (*Validator, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidSchema)
	}

	v := validator.New()
	_ = v.RegisterValidation("decimal", isDecimal)
	_ = v.RegisterValidation("positive", isPositive)
	_ = v.RegisterValidation("nonnegative", isNonNegative)

	for name, rules := range table.Schemas {
		for _, r := range rules {
			if err := probeTag(v, r.Tag); err != nil {
				return nil, fmt.Errorf("%w: schema %q field %q: %v", ErrInvalidSchema, name, r.Field, err)
			}
		}
	}

	return &Validator{table: table, validate: v}, nil
}

// Table returns the rule table the validator was built from.
func (v *Validator) Table() *Table {
	return v.table
}

// Validate checks fields against the named schema. It returns nil when
// every rule passes. Errors are reported in rule order, one per field.
func (v *Validator) Validate(fields Fields, schema string) *model.ErrorReport {
	rules, ok := v.table.Schemas[schema]
	if !ok {
		return &model.ErrorReport{Errors: []model.FieldError{{
			ErrorItem:    SchemaField,
			ErrorMessage: fmt.Sprintf("unknown schema %q", schema),
		}}}
	}

	var report *model.ErrorReport
	failed := make(map[string]bool)

	for _, r := range rules {
		if failed[r.Field] {
			continue
		}

		if err := v.validate.Var(fields[r.Field], r.Tag); err != nil {
			failed[r.Field] = true
			if report == nil {
				report = &model.ErrorReport{}
			}
			report.Errors = append(report.Errors, model.FieldError{
				ErrorItem:    r.Field,
				ErrorMessage: messageFor(r, err),
			})
		}
	}

	return report
}

func messageFor(r Rule, err error) string {
	if r.Message != "" {
		return r.Message
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s failed on %s", r.Field, verrs[0].Tag())
	}

	return err.Error()
}

// probeTag runs a tag once against sample values; the validator panics
// on undefined tags and malformed parameters.
func probeTag(v *validator.Validate, tag string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tag %q: %v", tag, rec)
		}
	}()

	for _, sample := range []string{"", "1"} {
		_ = v.Var(sample, tag)
	}

	return nil
}

// decimalPattern accepts plain digits with an optional fraction after a
// dot or comma. Exponent notation is rejected.
var decimalPattern = regexp.MustCompile(`^-?\d+([.,]\d+)?$`)

func parseField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	text := strings.TrimSpace(fl.Field().String())
	if !decimalPattern.MatchString(text) {
		return decimal.Zero, false
	}
	d, err := model.ParseNumber(text)
	return d, err == nil
}

func isDecimal(fl validator.FieldLevel) bool {
	_, ok := parseField(fl)
	return ok
}

func isPositive(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	return ok && d.IsPositive()
}

func isNonNegative(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	return ok && !d.IsNegative()
}
