package querystring

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/internal"
)

// ReadFilters reconstructs a FilterState from the parameters of c. Absent,
// unparsable or invalid values fall back to the corresponding value of
// defaults.
func ReadFilters(c *Codec, defaults apimodel.FilterState) apimodel.FilterState {
	f := defaults.Clone()
	if page, ok := ReadAs(c, apimodel.ParamPage, strconv.Atoi); ok {
		f.Page = page
	}
	if size, ok := ReadAs(c, apimodel.ParamPageSize, strconv.Atoi); ok {
		f.PageSize = size
	}
	if key, ok := c.Read(apimodel.ParamSearchKey); ok {
		f.SearchKey = key
	}
	if q, ok := c.Read(apimodel.ParamSearchQuery); ok {
		f.SearchQuery = q
	}
	for name, values := range c.Values() {
		if apimodel.IsReserved(name) || len(values) == 0 || values[0] == "" {
			continue
		}
		if f.Filters == nil {
			f.Filters = make(map[string]string)
		}
		f.Filters[name] = values[0]
	}

	err := apimodel.Validate.Struct(f)
	if err == nil {
		return f
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		internal.WithError(err).Error("querystring: could not validate filter state")
		return f
	}
	for _, fe := range verrs {
		internal.WithField("param", fe.Field()).Debugf("querystring: invalid value %v, using default", fe.Value())
		switch fe.StructField() {
		case "Page":
			f.Page = defaults.Page
		case "PageSize":
			f.PageSize = defaults.PageSize
		}
	}
	return f
}

// WriteFilters replaces all parameters of c with the encoding of f in a
// single location update.
func WriteFilters(c *Codec, f apimodel.FilterState) error {
	values, err := f.Values()
	if err != nil {
		return err
	}
	c.Batch(
		func() {
			c.Clear()
			for name := range values {
				c.Write(name, values.Get(name))
			}
		},
	)
	return nil
}
