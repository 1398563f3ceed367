package form

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

// ListForm controls creating or renaming a product list.
type ListForm struct {
	deps      Deps
	listID    string
	createdBy string

	mu    sync.Mutex
	state ListFormState
	saved *model.ProductList
}

// NewListForm starts a list form. With params.ProductList set the form
// renames that list. createdBy is stamped on newly created lists.
func NewListForm(params model.ListParams, createdBy string, deps Deps) *ListForm {
	f := &ListForm{
		deps:      deps.withDefaults(),
		createdBy: createdBy,
	}

	if list := params.ProductList; list != nil {
		f.listID = list.ID
		f.state.Name = list.Name
	}

	return f
}

// Mode reports whether the form creates or edits a list.
func (f *ListForm) Mode() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listID != "" {
		return ModeEdit
	}
	return ModeCreate
}

// State returns a copy of the current form state.
func (f *ListForm) State() ListFormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Dispatch applies an action to the form state.
func (f *ListForm) Dispatch(a Action) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = ReduceList(f.state, a)
}

// FindError reports the outstanding error of field, or helper when the
// field has none.
func (f *ListForm) FindError(field, helper string) FieldStatus {
	return findError(f.State().Errors, field, helper)
}

// SavedList returns the list written by the last successful save.
func (f *ListForm) SavedList() (model.ProductList, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saved == nil {
		return model.ProductList{}, false
	}
	return f.saved.Clone(), true
}

// Save validates the list name and creates or renames the list.
// Like ItemForm.Save it reports validation failures as (false, nil).
func (f *ListForm) Save(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.state.IsLoading {
		f.mu.Unlock()
		return false, ErrSaveInProgress
	}
	f.state = ReduceList(f.state, StartSave{})
	snapshot := f.state
	listID := f.listID
	f.mu.Unlock()

	defer f.Dispatch(SaveFinished{})

	mode := ModeCreate
	if listID != "" {
		mode = ModeEdit
	}

	if report := f.deps.Validator.Validate(snapshot.Fields(), validation.SchemaNewList); report != nil {
		f.Dispatch(SaveFailed{Report: report})
		formSavesTotal.WithLabelValues("list", mode, outcomeInvalid).Inc()
		return false, nil
	}

	var (
		saved *model.ProductList
		err   error
	)
	if listID == "" {
		saved, err = f.deps.Store.CreateList(ctx, &model.ProductList{
			Name:      snapshot.Name,
			CreatedBy: f.createdBy,
		})
	} else {
		saved, err = f.deps.Store.UpdateList(ctx, listID, &model.ProductList{Name: snapshot.Name})
	}
	if err != nil {
		formSavesTotal.WithLabelValues("list", mode, outcomeError).Inc()
		f.deps.Logger.Error("failed to save list",
			zap.String("list_id", listID),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return false, fmt.Errorf("save list: %w", err)
	}

	f.mu.Lock()
	f.state = ReduceList(f.state, SaveSucceeded{})
	f.listID = saved.ID
	f.saved = saved
	f.mu.Unlock()

	formSavesTotal.WithLabelValues("list", mode, outcomeSaved).Inc()
	f.deps.Logger.Info("list saved",
		zap.String("list_id", saved.ID),
		zap.String("mode", mode),
	)

	f.deps.Navigator.GoBack(ctx)

	return true, nil
}
