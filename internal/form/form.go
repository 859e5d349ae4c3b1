// Package form drives the create/edit location form: validation, the save
// and delete actions, and the optional currency lookup.
//
// Actions are split so the UI can keep its goroutine free of I/O:
//
//	sub, err := c.Prepare()       // UI goroutine: validate, snapshot fields
//	err = c.Submit(ctx, sub)      // any goroutine: store call
//	err = c.Complete(sub, err)    // UI goroutine: reset + navigate, or keep fields
//
// Save and Delete run all three steps in sequence.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/country"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/nav"
)

var (
	ErrSaveFailed        = errors.New("save location failed")
	ErrDeleteFailed      = errors.New("delete location failed")
	ErrNotEditing        = errors.New("form is not editing a saved location")
	ErrLookupUnavailable = errors.New("currency lookup unavailable")
)

// Mutator is the slice of the marker state the form writes through.
type Mutator interface {
	Add(ctx context.Context, draft marker.Marker) (marker.Marker, error)
	Update(ctx context.Context, m marker.Marker) error
	Delete(ctx context.Context, id string) error
}

// CurrencyLookup finds countries by exact name.
type CurrencyLookup interface {
	Lookup(ctx context.Context, name string) ([]country.Result, error)
}

// Deps are the collaborators of a Controller. Lookup may be nil, which
// disables the currency lookup. RequireCountry makes country and currency
// mandatory.
type Deps struct {
	Markers        Mutator
	Navigator      nav.Navigator
	Lookup         CurrencyLookup
	RequireCountry bool
	Logger         zerolog.Logger
}

// Mode is fixed when the form is opened.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Field identifies one input of the form.
type Field int

const (
	FieldName Field = iota
	FieldLatitude
	FieldLongitude
	FieldColor
	FieldCountry
	FieldCurrency
)

// Controller holds the state of one open form. Methods other than Submit
// and LookupCurrency must be called from a single goroutine.
type Controller struct {
	deps     Deps
	mode     Mode
	original marker.Marker
	fields   marker.Fields

	// resets counts how often the fields were replaced wholesale. Lookups
	// started before a reset are stale.
	resets atomic.Uint64
}

// New opens a form. A nil location opens it in create-mode; otherwise the
// form edits a copy of location.
func New(deps Deps, location *marker.Marker) *Controller {
	c := &Controller{deps: deps, mode: ModeCreate}
	if location != nil {
		c.mode = ModeEdit
		c.original = *location
		c.fields = location.Fields()
	}
	return c
}

// Mode returns the form mode.
func (c *Controller) Mode() Mode { return c.mode }

// Original returns the marker being edited.
func (c *Controller) Original() (marker.Marker, bool) {
	return c.original, c.mode == ModeEdit
}

// Title is the header text of the form screen.
func (c *Controller) Title() string {
	if c.mode == ModeEdit {
		return "Edit location"
	}
	return "New location"
}

// RequiresCountry reports whether country and currency are mandatory.
func (c *Controller) RequiresCountry() bool { return c.deps.RequireCountry }

// LookupAvailable reports whether LookupCurrency can be used.
func (c *Controller) LookupAvailable() bool { return c.deps.Lookup != nil }

// Fields returns the current field values.
func (c *Controller) Fields() marker.Fields { return c.fields }

// SetFields replaces every field.
func (c *Controller) SetFields(f marker.Fields) {
	c.fields = f
	c.resets.Add(1)
}

// Field returns one field value.
func (c *Controller) Field(f Field) string {
	switch f {
	case FieldName:
		return c.fields.Name
	case FieldLatitude:
		return c.fields.Latitude
	case FieldLongitude:
		return c.fields.Longitude
	case FieldColor:
		return c.fields.MarkerColor
	case FieldCountry:
		return c.fields.Country
	case FieldCurrency:
		return c.fields.Currency
	}
	return ""
}

// SetField sets one field value.
func (c *Controller) SetField(f Field, value string) {
	switch f {
	case FieldName:
		c.fields.Name = value
	case FieldLatitude:
		c.fields.Latitude = value
	case FieldLongitude:
		c.fields.Longitude = value
	case FieldColor:
		c.fields.MarkerColor = value
	case FieldCountry:
		c.fields.Country = value
	case FieldCurrency:
		c.fields.Currency = value
	}
}

// Action is what a Submission does.
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

// Submission is a validated action ready for the store.
type Submission struct {
	Action Action
	Marker marker.Marker
}

// SuccessMessage is the confirmation shown after the action succeeds.
func (s Submission) SuccessMessage() string {
	switch s.Action {
	case ActionUpdate:
		return "Location updated!"
	case ActionDelete:
		return "Location removed!"
	default:
		return "Location saved!"
	}
}

// Prepare validates the fields and builds the save submission. No store
// call is made when validation fails.
func (c *Controller) Prepare() (Submission, error) {
	fields := c.fields.Trimmed()
	if err := marker.Validate(fields, c.deps.RequireCountry); err != nil {
		return Submission{}, err
	}
	if c.mode == ModeEdit {
		return Submission{Action: ActionUpdate, Marker: fields.WithID(c.original.ID)}, nil
	}
	return Submission{Action: ActionCreate, Marker: fields.WithID("")}, nil
}

// PrepareDelete builds the delete submission for the edited marker.
func (c *Controller) PrepareDelete() (Submission, error) {
	if c.mode != ModeEdit {
		return Submission{}, ErrNotEditing
	}
	return Submission{Action: ActionDelete, Marker: c.original}, nil
}

// Submit performs the store call of sub. It touches no form state.
func (c *Controller) Submit(ctx context.Context, sub Submission) error {
	switch sub.Action {
	case ActionCreate:
		_, err := c.deps.Markers.Add(ctx, sub.Marker)
		return err
	case ActionUpdate:
		return c.deps.Markers.Update(ctx, sub.Marker)
	case ActionDelete:
		return c.deps.Markers.Delete(ctx, sub.Marker.ID)
	}
	return fmt.Errorf("unknown form action %d", sub.Action)
}

// Complete applies the outcome of Submit. On success a saved form is
// cleared and the list screen is shown; on failure the fields are kept and
// the returned error wraps ErrSaveFailed or ErrDeleteFailed.
func (c *Controller) Complete(sub Submission, err error) error {
	if err != nil {
		c.deps.Logger.Error().Err(err).Str("action", sub.actionName()).Str("id", sub.Marker.ID).Msg("form submit")
		if sub.Action == ActionDelete {
			return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if sub.Action != ActionDelete {
		c.SetFields(marker.Fields{})
	}
	if c.deps.Navigator != nil {
		c.deps.Navigator.Navigate(nav.LocationList, nav.Params{})
	}
	return nil
}

func (s Submission) actionName() string {
	switch s.Action {
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "create"
	}
}

// Save validates and persists the form.
func (c *Controller) Save(ctx context.Context) error {
	sub, err := c.Prepare()
	if err != nil {
		return err
	}
	return c.Complete(sub, c.Submit(ctx, sub))
}

// Delete removes the edited marker.
func (c *Controller) Delete(ctx context.Context) error {
	sub, err := c.PrepareDelete()
	if err != nil {
		return err
	}
	return c.Complete(sub, c.Submit(ctx, sub))
}

// ShowOnMap opens the map centred on the edited marker.
func (c *Controller) ShowOnMap() error {
	if c.mode != ModeEdit {
		return ErrNotEditing
	}
	coord, err := c.original.Coordinate()
	if err != nil {
		return err
	}
	region := geo.RegionAround(coord, geo.DefaultDelta)
	if c.deps.Navigator != nil {
		c.deps.Navigator.Navigate(nav.Map, nav.Params{MapRegion: &region})
	}
	return nil
}

// LookupResult is the outcome of a currency lookup.
type LookupResult struct {
	Country  string
	Currency string
	Found    bool
	Err      error

	resets uint64
}

// LookupCurrency queries the currency of countryName. It touches no form
// state. Errors are logged and returned in the result.
func (c *Controller) LookupCurrency(ctx context.Context, countryName string) LookupResult {
	res := LookupResult{Country: strings.TrimSpace(countryName), resets: c.resets.Load()}
	if c.deps.Lookup == nil {
		res.Err = ErrLookupUnavailable
		return res
	}
	results, err := c.deps.Lookup.Lookup(ctx, res.Country)
	if err != nil {
		c.deps.Logger.Warn().Err(err).Str("country", res.Country).Msg("currency lookup")
		res.Err = err
		return res
	}
	res.Currency, res.Found = country.FirstCurrency(results)
	return res
}

// Stale reports whether the form was cleared or replaced after the lookup
// behind res started.
func (c *Controller) Stale(res LookupResult) bool {
	return res.resets != c.resets.Load()
}

// ApplyLookup copies a found currency into the currency field and reports
// whether the field changed. Empty, failed or stale results leave it as is.
func (c *Controller) ApplyLookup(res LookupResult) bool {
	if res.Err != nil || !res.Found || res.Currency == "" || c.Stale(res) {
		return false
	}
	c.fields.Currency = res.Currency
	return true
}

// UserMessage turns an error from the form into text for the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *marker.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrSaveFailed):
		return "Failed to save the location. Please try again."
	case errors.Is(err, ErrDeleteFailed):
		return "Failed to delete the location. Please try again."
	case errors.Is(err, ErrLookupUnavailable):
		return "Currency lookup needs the remote store."
	case errors.Is(err, ErrNotEditing):
		return "Save the location first."
	default:
		return err.Error()
	}
}
