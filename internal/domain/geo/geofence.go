package geo

import "math"

const (
	earthRadiusMiles   = 3958.8
	DefaultRadiusMiles = 0.25
)

// Enforcement is the geofence posture of a project site.
type Enforcement int

const (
	// EnforcementNone means the project does not require clock locations.
	EnforcementNone Enforcement = iota
	// EnforcementCaptureOnly means a location is recorded when available but
	// never verified, typically because the site has no coordinates on file.
	EnforcementCaptureOnly
	// EnforcementEnforced means clock-ins outside the radius are refused.
	EnforcementEnforced
)

// Site is a project's geofence configuration.
type Site struct {
	RequireClockLocation bool
	Lat                  *float64
	Lng                  *float64
	RadiusMiles          *float64
}

// Enforcement resolves the site's posture. A require flag without
// coordinates downgrades to capture-only rather than blocking everyone.
func (s Site) Enforcement() Enforcement {
	if !s.RequireClockLocation {
		return EnforcementNone
	}
	if s.Lat == nil || s.Lng == nil {
		return EnforcementCaptureOnly
	}
	return EnforcementEnforced
}

// Radius returns the configured radius, defaulting to a quarter mile.
func (s Site) Radius() float64 {
	if s.RadiusMiles == nil || *s.RadiusMiles <= 0 {
		return DefaultRadiusMiles
	}
	return *s.RadiusMiles
}

// Distance returns the great-circle distance between two coordinates in miles.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// IsWithin reports whether the fix is inside the geofence. The boundary is
// inclusive: a fix exactly at the radius counts as within.
func IsWithin(fixLat, fixLng, siteLat, siteLng, radiusMiles float64) bool {
	return Distance(fixLat, fixLng, siteLat, siteLng) <= radiusMiles
}

// CheckFix validates a fix against the site. The second return is the
// distance in miles; it is only meaningful when the site enforces a geofence
// and the fix has coordinates.
func (s Site) CheckFix(fix Fix) (bool, float64) {
	if s.Enforcement() != EnforcementEnforced {
		return true, 0
	}
	if !fix.HasCoordinates() {
		return false, 0
	}
	dist := Distance(*fix.Lat, *fix.Lng, *s.Lat, *s.Lng)
	return dist <= s.Radius(), dist
}
