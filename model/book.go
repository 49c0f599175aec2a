package model

// Catalog content is managed outside this service; these are read-only views.

type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type Library struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	AddressID int64   `json:"address_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Library) Coordinates() Coordinates {
	return Coordinates{Lat: l.Latitude, Lng: l.Longitude}
}
