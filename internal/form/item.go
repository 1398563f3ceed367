package form

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/model"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

// ItemForm controls creating or editing one item of a product list.
type ItemForm struct {
	deps   Deps
	listID string

	mu     sync.Mutex
	state  ItemFormState
	editID string
	saved  *model.ProductItem
}

// NewItemForm starts an item form. With params.ItemData set the form edits
// that item; otherwise it creates a new one with the default quantity.
func NewItemForm(params model.ItemParams, deps Deps) (*ItemForm, error) {
	if params.ListID == "" {
		return nil, ErrMissingListID
	}

	f := &ItemForm{
		deps:   deps.withDefaults(),
		listID: params.ListID,
		state:  ItemFormState{Qtd: model.DefaultQtd},
	}

	if item := params.ItemData; item != nil {
		f.editID = item.ID
		f.state = ItemFormState{
			Name:   item.Name,
			Amount: item.Amount,
			Qtd:    item.Qtd,
			Brand:  item.Brand,
		}
	}

	return f, nil
}

// Mode reports whether the form creates or edits an item.
func (f *ItemForm) Mode() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.editID != "" {
		return ModeEdit
	}
	return ModeCreate
}

// State returns a copy of the current form state.
func (f *ItemForm) State() ItemFormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Dispatch applies an action to the form state.
func (f *ItemForm) Dispatch(a Action) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = Reduce(f.state, a)
}

// FindError reports the outstanding error of field, or helper when the
// field has none.
func (f *ItemForm) FindError(field, helper string) FieldStatus {
	return findError(f.State().Errors, field, helper)
}

// SavedItem returns the item written by the last successful save.
func (f *ItemForm) SavedItem() (model.ProductItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saved == nil {
		return model.ProductItem{}, false
	}
	return *f.saved, true
}

// Save validates the fields and, when they pass, replaces the edited item
// in its list with a new item carrying a fresh ID, then navigates back.
// It returns false with a nil error when validation failed; the report is
// then available through State and FindError. The loading flag is cleared
// on every return path.
func (f *ItemForm) Save(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.state.IsLoading {
		f.mu.Unlock()
		return false, ErrSaveInProgress
	}
	f.state = Reduce(f.state, StartSave{})
	snapshot := f.state
	editID := f.editID
	f.mu.Unlock()

	defer f.Dispatch(SaveFinished{})

	mode := ModeCreate
	if editID != "" {
		mode = ModeEdit
	}
	logger := f.deps.Logger.With(
		zap.String("list_id", f.listID),
		zap.String("mode", mode),
	)

	if report := f.deps.Validator.Validate(snapshot.Fields(), validation.SchemaProductList); report != nil {
		f.Dispatch(SaveFailed{Report: report})
		formSavesTotal.WithLabelValues("item", mode, outcomeInvalid).Inc()
		logger.Debug("item form rejected", zap.Int("errors", len(report.Errors)))
		return false, nil
	}

	newItem := model.ProductItem{
		ID:     f.deps.NewID(),
		Name:   snapshot.Name,
		Amount: snapshot.Amount,
		Qtd:    snapshot.Qtd,
		Brand:  snapshot.Brand,
	}

	err := f.deps.Store.ReplaceItem(ctx, f.listID, editID, newItem, f.deps.StrictEdit)
	if err != nil {
		formSavesTotal.WithLabelValues("item", mode, outcomeError).Inc()
		logger.Error("failed to store item", zap.Error(err))
		return false, fmt.Errorf("save item: %w", err)
	}

	f.mu.Lock()
	f.state = Reduce(f.state, SaveSucceeded{})
	f.editID = newItem.ID
	f.saved = &newItem
	f.mu.Unlock()

	formSavesTotal.WithLabelValues("item", mode, outcomeSaved).Inc()
	logger.Info("item saved",
		zap.String("item_id", newItem.ID),
		zap.String("replaced_id", editID),
	)

	f.deps.Navigator.GoBack(ctx)

	return true, nil
}
