package location

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
)

type fakeGeocoder struct {
	place      geocode.Place
	candidates []geocode.Candidate
	err        error
	lastQuery  string
}

func (f *fakeGeocoder) Reverse(_ context.Context, _, _ float64) (geocode.Place, error) {
	return f.place, f.err
}

func (f *fakeGeocoder) Forward(_ context.Context, query string) ([]geocode.Candidate, error) {
	f.lastQuery = query
	return f.candidates, f.err
}

func TestFromCoordinates(t *testing.T) {
	geo := &fakeGeocoder{place: geocode.Place{City: "Lyon", PrincipalSubdivision: "Auvergne-Rhône-Alpes", CountryName: "France"}}
	resolver := NewResolver(geo, geo)

	loc, err := resolver.FromCoordinates(context.Background(), 45.76, 4.83)
	if err != nil {
		t.Fatalf("FromCoordinates err: %v", err)
	}
	if loc.City != "Lyon" || loc.Country != "France" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if loc.Address != "Lyon, Auvergne-Rhône-Alpes, France" {
		t.Fatalf("unexpected address: %s", loc.Address)
	}
	if loc.Lat != 45.76 || loc.Lon != 4.83 || loc.Approximate {
		t.Fatalf("unexpected coordinates: %+v", loc)
	}
}

func TestFromCoordinatesFallbackNames(t *testing.T) {
	geo := &fakeGeocoder{place: geocode.Place{Locality: "Smallville"}}
	loc, err := NewResolver(geo, geo).FromCoordinates(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("FromCoordinates err: %v", err)
	}
	if loc.City != "Smallville" || loc.Country != "Unknown Country" {
		t.Fatalf("unexpected fallback names: %+v", loc)
	}

	empty := &fakeGeocoder{}
	loc, _ = NewResolver(empty, empty).FromCoordinates(context.Background(), 1, 1)
	if loc.City != "Unknown City" {
		t.Fatalf("expected Unknown City, got %s", loc.City)
	}
}

func TestFromCoordinatesLookupFailure(t *testing.T) {
	geo := &fakeGeocoder{err: geocode.ErrRequestFailed}
	if _, err := NewResolver(geo, geo).FromCoordinates(context.Background(), 1, 1); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
}

func TestFromCityUsesFirstResult(t *testing.T) {
	geo := &fakeGeocoder{candidates: []geocode.Candidate{
		{City: "Springfield", AdminArea1: "Illinois", Country: "United States", Latitude: 39.78, Longitude: -89.65},
		{City: "Springfield", AdminArea1: "Missouri", Country: "United States", Latitude: 37.2, Longitude: -93.29},
	}}

	loc, err := NewResolver(geo, geo).FromCity(context.Background(), "  Springfield ")
	if err != nil {
		t.Fatalf("FromCity err: %v", err)
	}
	if geo.lastQuery != "Springfield" {
		t.Fatalf("expected trimmed query, got %q", geo.lastQuery)
	}
	if loc.Address != "Springfield, Illinois, United States" || loc.Lat != 39.78 {
		t.Fatalf("expected first result, got %+v", loc)
	}
}

func TestFromCityZeroResultsFallsBack(t *testing.T) {
	geo := &fakeGeocoder{}
	loc, err := NewResolver(geo, geo).FromCity(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("FromCity err: %v", err)
	}
	if loc.City != "Atlantis" || loc.Address != "Atlantis" || !loc.Approximate {
		t.Fatalf("expected placeholder carrying typed name, got %+v", loc)
	}
	if loc.Lat != DefaultFallbackLat || loc.Lon != DefaultFallbackLon {
		t.Fatalf("expected default coordinates, got %f,%f", loc.Lat, loc.Lon)
	}

	custom, _ := NewResolver(geo, geo, WithFallbackCoordinates(1.5, 2.5)).FromCity(context.Background(), "Atlantis")
	if custom.Lat != 1.5 || custom.Lon != 2.5 {
		t.Fatalf("expected custom fallback coordinates, got %+v", custom)
	}
}

func TestFromCityErrors(t *testing.T) {
	geo := &fakeGeocoder{err: geocode.ErrBadResponse}
	resolver := NewResolver(geo, geo)

	if _, err := resolver.FromCity(context.Background(), "   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := resolver.FromCity(context.Background(), "Rome"); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
}

func TestDeviceMessagesAreDistinct(t *testing.T) {
	codes := []DeviceErrorCode{DeviceUnsupported, DevicePermissionDenied, DevicePositionUnavailable, DeviceTimeout, DeviceUnknown}
	seen := make(map[string]DeviceErrorCode)
	for _, code := range codes {
		msg := DeviceMessage(code)
		if prev, ok := seen[msg]; ok {
			t.Fatalf("codes %s and %s share a message", prev, code)
		}
		seen[msg] = code
	}
	if DeviceMessage("weird") != DeviceMessage(DeviceUnknown) {
		t.Fatal("unrecognised code should map to the unknown message")
	}
}

func TestParseDeviceErrorCode(t *testing.T) {
	cases := map[string]DeviceErrorCode{
		"1":                    DevicePermissionDenied,
		"PERMISSION_DENIED":    DevicePermissionDenied,
		"position-unavailable": DevicePositionUnavailable,
		"3":                    DeviceTimeout,
		"unsupported":          DeviceUnsupported,
		"":                     DeviceUnknown,
	}
	for raw, want := range cases {
		if got := ParseDeviceErrorCode(raw); got != want {
			t.Fatalf("ParseDeviceErrorCode(%q) = %s, want %s", raw, got, want)
		}
	}
}
