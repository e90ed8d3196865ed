package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
)

// Default coordinates used for approximate manual locations.
const (
	DefaultFallbackLat = 40.7128
	DefaultFallbackLon = -74.0060
)

var (
	ErrEmptyQuery   = errors.New("city name is required")
	ErrLookupFailed = errors.New("location lookup failed")
)

// DeviceErrorCode is what a client reports when device geolocation did not
// produce coordinates.
type DeviceErrorCode string

const (
	DeviceUnsupported         DeviceErrorCode = "unsupported"
	DevicePermissionDenied    DeviceErrorCode = "permission-denied"
	DevicePositionUnavailable DeviceErrorCode = "position-unavailable"
	DeviceTimeout             DeviceErrorCode = "timeout"
	DeviceUnknown             DeviceErrorCode = "unknown"
)

var deviceMessages = map[DeviceErrorCode]string{
	DeviceUnsupported:         "❌ Geolocation is not supported by this browser. Please enter your city manually.",
	DevicePermissionDenied:    "❌ Location access denied. Please enable location permissions or enter your city manually.",
	DevicePositionUnavailable: "❌ Location information unavailable. Please enter your city manually.",
	DeviceTimeout:             "❌ Location request timed out. Please enter your city manually.",
	DeviceUnknown:             "❌ An unknown error occurred. Please enter your city manually.",
}

// DeviceError wraps a device geolocation failure. It is terminal for the
// automatic path; the user is sent to manual entry.
type DeviceError struct {
	Code DeviceErrorCode
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device geolocation failed: %s", e.Code)
}

// Message returns the user-facing text for the failure.
func (e *DeviceError) Message() string {
	return DeviceMessage(e.Code)
}

// DeviceMessage maps a device error code to its user-facing text. Unrecognised
// codes map to the unknown-error text.
func DeviceMessage(code DeviceErrorCode) string {
	if msg, ok := deviceMessages[code]; ok {
		return msg
	}
	return deviceMessages[DeviceUnknown]
}

// ParseDeviceErrorCode normalises client supplied codes, accepting the W3C
// numeric codes as well.
func ParseDeviceErrorCode(raw string) DeviceErrorCode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unsupported", "not-supported":
		return DeviceUnsupported
	case "permission-denied", "permission_denied", "1":
		return DevicePermissionDenied
	case "position-unavailable", "position_unavailable", "2":
		return DevicePositionUnavailable
	case "timeout", "3":
		return DeviceTimeout
	default:
		return DeviceUnknown
	}
}

// Resolver turns device coordinates or a typed city into a location.
type Resolver struct {
	reverse     geocode.Reverser
	forward     geocode.Forwarder
	fallbackLat float64
	fallbackLon float64
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithFallbackCoordinates overrides the coordinates used for approximate locations.
func WithFallbackCoordinates(lat, lon float64) Option {
	return func(r *Resolver) {
		r.fallbackLat = lat
		r.fallbackLon = lon
	}
}

// NewResolver wires the geocoding collaborators.
func NewResolver(reverse geocode.Reverser, forward geocode.Forwarder, opts ...Option) *Resolver {
	r := &Resolver{
		reverse:     reverse,
		forward:     forward,
		fallbackLat: DefaultFallbackLat,
		fallbackLon: DefaultFallbackLon,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromCoordinates reverse-geocodes device coordinates.
func (r *Resolver) FromCoordinates(ctx context.Context, lat, lon float64) (chat.Location, error) {
	if r.reverse == nil {
		return chat.Location{}, fmt.Errorf("%w: reverse geocoder unavailable", ErrLookupFailed)
	}

	place, err := r.reverse.Reverse(ctx, lat, lon)
	if err != nil {
		log.Printf("[location] reverse lookup failed lat=%f lon=%f: %v", lat, lon, err)
		return chat.Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	name := firstNonEmpty(place.City, place.Locality)
	return chat.Location{
		Lat:     lat,
		Lon:     lon,
		City:    firstNonEmpty(name, "Unknown City"),
		Country: firstNonEmpty(place.CountryName, "Unknown Country"),
		Address: fmt.Sprintf("%s, %s, %s", name, place.PrincipalSubdivision, place.CountryName),
		Source:  chat.SourceDevice,
	}, nil
}

// FromCity forward-geocodes a typed city name. Zero results degrade to an
// approximate location carrying the typed name instead of failing.
func (r *Resolver) FromCity(ctx context.Context, query string) (chat.Location, error) {
	city := strings.TrimSpace(query)
	if city == "" {
		return chat.Location{}, ErrEmptyQuery
	}
	if r.forward == nil {
		return chat.Location{}, fmt.Errorf("%w: forward geocoder unavailable", ErrLookupFailed)
	}

	results, err := r.forward.Forward(ctx, city)
	if err != nil {
		log.Printf("[location] forward lookup failed query=%q: %v", city, err)
		return chat.Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	if len(results) == 0 {
		return r.Placeholder(city), nil
	}

	best := results[0]
	name := firstNonEmpty(best.City, city)
	return chat.Location{
		Lat:     best.Latitude,
		Lon:     best.Longitude,
		City:    name,
		Country: firstNonEmpty(best.Country, "Unknown Country"),
		Address: fmt.Sprintf("%s, %s, %s", name, best.AdminArea1, best.Country),
		Source:  chat.SourceManual,
	}, nil
}

// Placeholder builds the approximate location used when a city cannot be geocoded.
func (r *Resolver) Placeholder(city string) chat.Location {
	return chat.Location{
		Lat:         r.fallbackLat,
		Lon:         r.fallbackLon,
		City:        city,
		Country:     "Unknown",
		Address:     city,
		Approximate: true,
		Source:      chat.SourceManual,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
