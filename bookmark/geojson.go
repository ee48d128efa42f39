// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

package bookmark

// FeatureCollection is the GeoJSON document map widgets consume.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON point feature.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

// Geometry holds [lon, lat] as GeoJSON requires.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoJSON converts bookmarks to point features in list order.
func GeoJSON(list []Bookmark) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(list))}
	for _, b := range list {
		props := map[string]string{"name": b.Name}
		if b.Address != "" {
			props["address"] = b.Address
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{b.Lon, b.Lat}},
			Properties: props,
		})
	}
	return fc
}
