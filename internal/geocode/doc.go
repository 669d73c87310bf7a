// Package geocode resolves GPS coordinates to place names such as "Shibuya, Tokyo".
//
// [Client] queries a Nominatim compatible reverse geocoding API under a rate limit and maps
// every failure to apperr.GeocodeError. [Cached] puts an expirable LRU and an optional
// SQLite [DiskCache] in front of it. [Lenient] downgrades failures to [Placeholder]; it is
// only used when GEOCODE_FAILURE_PLACEHOLDER is set, otherwise a failed lookup fails the
// upload.
package geocode
