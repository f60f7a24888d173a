// README: Common identifier and geographic point types shared across modules.
package types

// ID is a stable string identifier for orders, drivers, and runs.
type ID string

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
