package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

// Accepted layouts for created_after and created_before.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// recordParams holds the record listing filters from the query string
type recordParams struct {
	Map           string `validate:"max=128"`
	Mode          string `validate:"max=32"`
	Player        string `validate:"max=128"`
	Server        string `validate:"max=128"`
	Stage         *uint8
	HasTeleports  *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int `validate:"min=0,max=10000"`
}

func (p recordParams) spec() query.Spec {
	return query.Spec{
		Map:           p.Map,
		Stage:         p.Stage,
		Mode:          p.Mode,
		Player:        p.Player,
		Server:        p.Server,
		HasTeleports:  p.HasTeleports,
		CreatedAfter:  p.CreatedAfter,
		CreatedBefore: p.CreatedBefore,
	}
}

func (h *Handler) recordParams(r *http.Request) (recordParams, error) {
	values := r.URL.Query()
	p := recordParams{
		Map:    values.Get("map"),
		Mode:   values.Get("mode"),
		Player: values.Get("player"),
		Server: values.Get("server"),
	}

	var err error
	if p.Stage, err = parseUint8(values, "stage"); err != nil {
		return p, err
	}
	if p.HasTeleports, err = parseBool(values, "has_teleports"); err != nil {
		return p, err
	}
	if p.CreatedAfter, err = parseTime(values, "created_after"); err != nil {
		return p, err
	}
	if p.CreatedBefore, err = parseTime(values, "created_before"); err != nil {
		return p, err
	}
	if p.Limit, err = parseLimit(values); err != nil {
		return p, err
	}

	return p, h.check(p)
}

// mapParams holds the map listing filters from the query string
type mapParams struct {
	Name          string `validate:"max=128"`
	Courses       *uint8
	Validated     *bool
	CreatedBy     string `validate:"max=128"`
	ApprovedBy    string `validate:"max=128"`
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int `validate:"min=0,max=10000"`
}

func (p mapParams) filter() query.MapFilter {
	return query.MapFilter{
		Name:          p.Name,
		Courses:       p.Courses,
		Validated:     p.Validated,
		CreatedBy:     p.CreatedBy,
		ApprovedBy:    p.ApprovedBy,
		CreatedAfter:  p.CreatedAfter,
		CreatedBefore: p.CreatedBefore,
	}
}

func (h *Handler) mapParams(r *http.Request) (mapParams, error) {
	values := r.URL.Query()
	p := mapParams{
		Name:       values.Get("name"),
		CreatedBy:  values.Get("created_by"),
		ApprovedBy: values.Get("approved_by"),
	}

	var err error
	if p.Courses, err = parseUint8(values, "courses"); err != nil {
		return p, err
	}
	if p.Validated, err = parseBool(values, "validated"); err != nil {
		return p, err
	}
	if p.CreatedAfter, err = parseTime(values, "created_after"); err != nil {
		return p, err
	}
	if p.CreatedBefore, err = parseTime(values, "created_before"); err != nil {
		return p, err
	}
	if p.Limit, err = parseLimit(values); err != nil {
		return p, err
	}
	return p, h.check(p)
}

// serverParams holds the server listing filters from the query string
type serverParams struct {
	Name       string `validate:"max=128"`
	OwnedBy    string `validate:"max=128"`
	ApprovedBy string `validate:"max=128"`
	Limit      int    `validate:"min=0,max=10000"`
}

func (p serverParams) filter() query.ServerFilter {
	return query.ServerFilter{Name: p.Name, OwnedBy: p.OwnedBy, ApprovedBy: p.ApprovedBy}
}

func (h *Handler) serverParams(r *http.Request) (serverParams, error) {
	values := r.URL.Query()
	p := serverParams{
		Name:       values.Get("name"),
		OwnedBy:    values.Get("owned_by"),
		ApprovedBy: values.Get("approved_by"),
	}

	var err error
	if p.Limit, err = parseLimit(values); err != nil {
		return p, err
	}
	return p, h.check(p)
}

// check runs the struct tags of a params value.
func (h *Handler) check(p any) error {
	if err := h.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s out of bounds", domain.ErrInvalidInput, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// parseUint8 reads key as a number in the 0-255 range of the schema's
// smallint columns.
func parseUint8(values url.Values, key string) (*uint8, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return nil, invalidParam(key, raw)
	}
	v := uint8(n)
	return &v, nil
}

func parseLimit(values url.Values) (int, error) {
	raw := values.Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam("limit", raw)
	}
	return n, nil
}

func parseBool(values url.Values, key string) (*bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidParam(key, raw)
	}
	return &b, nil
}

func parseTime(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, invalidParam(key, raw)
}

func invalidParam(key, raw string) error {
	return fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, key, raw)
}
