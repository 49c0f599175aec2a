package model

import "time"

// Coordinates is a geocoded (lat, lng) pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address rows are immutable; an exact (street, city, postal_code) match is
// reused before anything is geocoded again.
type Address struct {
	ID         int64     `json:"id"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a Address) Coordinates() Coordinates {
	return Coordinates{Lat: a.Latitude, Lng: a.Longitude}
}
