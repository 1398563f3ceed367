package form

import "github.com/vyrodovalexey/shoplist-api/internal/model"

// Field names shared by the forms and the validation schemas.
const (
	FieldName   = "name"
	FieldAmount = "amount"
	FieldQtd    = "qtd"
	FieldBrand  = "brand"
)

// ItemFormState is the complete state of the item form. It is only ever
// replaced through Reduce, never modified in place.
type ItemFormState struct {
	Name      string             `json:"name"`
	Amount    string             `json:"amount"`
	Qtd       string             `json:"qtd"`
	Brand     string             `json:"brand"`
	IsLoading bool               `json:"isLoading"`
	Errors    *model.ErrorReport `json:"errors,omitempty"`
}

// Fields returns the editable values keyed by field name.
func (s ItemFormState) Fields() map[string]string {
	return map[string]string{
		FieldName:   s.Name,
		FieldAmount: s.Amount,
		FieldQtd:    s.Qtd,
		FieldBrand:  s.Brand,
	}
}

// Action is an event applied to form state by Reduce.
type Action interface {
	isAction()
}

// SetName replaces the name field.
type SetName struct{ Value string }

// SetAmount replaces the amount field.
type SetAmount struct{ Value string }

// SetQtd replaces the quantity field.
type SetQtd struct{ Value string }

// SetBrand replaces the brand field.
type SetBrand struct{ Value string }

// StartSave marks the form as busy.
type StartSave struct{}

// SaveFailed records the report of a rejected save.
type SaveFailed struct{ Report *model.ErrorReport }

// SaveSucceeded discards any outstanding report.
type SaveSucceeded struct{}

// SaveFinished clears the busy flag. It follows every StartSave.
type SaveFinished struct{}

func (SetName) isAction()       {}
func (SetAmount) isAction()     {}
func (SetQtd) isAction()        {}
func (SetBrand) isAction()      {}
func (StartSave) isAction()     {}
func (SaveFailed) isAction()    {}
func (SaveSucceeded) isAction() {}
func (SaveFinished) isAction()  {}

// Reduce returns the state that results from applying a to s.
// Editing a field drops the outstanding error for that field.
func Reduce(s ItemFormState, a Action) ItemFormState {
	switch a := a.(type) {
	case SetName:
		s.Name = a.Value
		s.Errors = s.Errors.Without(FieldName)
	case SetAmount:
		s.Amount = a.Value
		s.Errors = s.Errors.Without(FieldAmount)
	case SetQtd:
		s.Qtd = a.Value
		s.Errors = s.Errors.Without(FieldQtd)
	case SetBrand:
		s.Brand = a.Value
		s.Errors = s.Errors.Without(FieldBrand)
	case StartSave:
		s.IsLoading = true
	case SaveFailed:
		s.Errors = a.Report
	case SaveSucceeded:
		s.Errors = nil
	case SaveFinished:
		s.IsLoading = false
	}
	return s
}

// ListFormState is the complete state of the list form.
type ListFormState struct {
	Name      string             `json:"name"`
	IsLoading bool               `json:"isLoading"`
	Errors    *model.ErrorReport `json:"errors,omitempty"`
}

// Fields returns the editable values keyed by field name.
func (s ListFormState) Fields() map[string]string {
	return map[string]string{FieldName: s.Name}
}

// ReduceList applies a to list form state. Item-only actions are ignored.
func ReduceList(s ListFormState, a Action) ListFormState {
	switch a := a.(type) {
	case SetName:
		s.Name = a.Value
		s.Errors = s.Errors.Without(FieldName)
	case StartSave:
		s.IsLoading = true
	case SaveFailed:
		s.Errors = a.Report
	case SaveSucceeded:
		s.Errors = nil
	case SaveFinished:
		s.IsLoading = false
	}
	return s
}

// FieldStatus tells a form field whether to render an error and which
// helper text to show below it.
type FieldStatus struct {
	Error      bool   `json:"error"`
	HelperText string `json:"helperText,omitempty"`
}

// findError looks field up in report, falling back to helper.
func findError(report *model.ErrorReport, field, helper string) FieldStatus {
	if fe, ok := report.Find(field); ok {
		return FieldStatus{Error: true, HelperText: fe.ErrorMessage}
	}
	return FieldStatus{HelperText: helper}
}
