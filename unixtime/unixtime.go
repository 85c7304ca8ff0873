package unixtime

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Unixtime is a type for handling unix timestamps
type Unixtime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *Unixtime) UnmarshalJSON(src []byte) error {
	var f float64
	if err := json.Unmarshal(src, &f); err != nil {
		return errors.WithStack(err)
	}
	u.Time = fromSeconds(f)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (u Unixtime) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return json.Marshal(0)
	}
	return json.Marshal(u.Unix())
}

func fromSeconds(f float64) time.Time {
	if f == 0 {
		return time.Time{}
	}
	sec, dec := math.Modf(f)
	return time.Unix(int64(sec), int64(dec*1e9))
}

// FromSeconds returns the Unixtime of a number of seconds since the epoch;
// zero yields the zero Unixtime.
func FromSeconds(f float64) Unixtime {
	return Unixtime{fromSeconds(f)}
}

// Expired reports whether u is set and lies in the past, allowing for leeway.
func (u Unixtime) Expired(leeway time.Duration) bool {
	return !u.IsZero() && u.Add(leeway).Before(time.Now())
}

// Until returns the time.Duration from now until an Unixtime
func Until(u Unixtime) time.Duration {
	return time.Until(u.Time)
}

// Now returns the current time as Unixtime
func Now() Unixtime {
	return Unixtime{time.Now()}
}

// NewDurationInSeconds returns a DurationInSeconds from a number of seconds
func NewDurationInSeconds(seconds float64) DurationInSeconds {
	return DurationInSeconds{secondsToDuration(seconds)}
}

// DurationInSeconds is a type for handling time.Duration expressed in
// (possibly fractional) seconds, e.g. 0.65 for 650ms.
type DurationInSeconds struct {
	time.Duration
}

func secondsToDuration(f float64) time.Duration {
	return time.Duration(math.Round(f * float64(time.Second)))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *DurationInSeconds) UnmarshalJSON(src []byte) error {
	var f float64
	if err := json.Unmarshal(src, &f); err != nil {
		return errors.WithStack(err)
	}
	*d = DurationInSeconds{secondsToDuration(f)}
	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *DurationInSeconds) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err != nil {
		return errors.Wrap(err, "duration must be a number of seconds")
	}
	*d = DurationInSeconds{secondsToDuration(f)}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d DurationInSeconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Seconds())
}

// MarshalYAML implements the yaml.Marshaler interface.
func (d DurationInSeconds) MarshalYAML() (any, error) {
	return d.Seconds(), nil
}
