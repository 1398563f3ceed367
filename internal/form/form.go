// Package form implements the item and list form controllers: field
// state, validation on save and the write into the list store.
package form

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/store"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

// Form errors.
var (
	ErrSaveInProgress = errors.New("save already in progress")
	ErrMissingListID  = errors.New("list ID is required")
)

// Form modes.
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// Save outcomes recorded in metrics.
const (
	outcomeSaved   = "saved"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

var formSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "shoplist",
		Name:      "form_saves_total",
		Help:      "Form save attempts by form, mode and outcome.",
	},
	[]string{"form", "mode", "outcome"},
)

// Navigator is told when a form has finished and the previous screen
// should be shown again.
type Navigator interface {
	GoBack(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

// GoBack calls f.
func (f NavigatorFunc) GoBack(ctx context.Context) {
	f(ctx)
}

// IDGenerator returns a fresh unique item ID.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.New().String()
}

// Deps are the collaborators a form controller writes through.
type Deps struct {
	Store     store.Store
	Validator *validation.Validator
	Navigator Navigator
	NewID     IDGenerator
	Logger    *zap.Logger

	// StrictEdit makes an edit fail with store.ErrItemNotFound when the
	// edited item is gone, instead of appending the replacement.
	StrictEdit bool
}

// withDefaults fills optional collaborators.
func (d Deps) withDefaults() Deps {
	if d.Navigator == nil {
		d.Navigator = NavigatorFunc(func(context.Context) {})
	}
	if d.NewID == nil {
		d.NewID = NewUUID
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}
