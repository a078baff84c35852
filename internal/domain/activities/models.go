package activities

import "time"

type Activity struct {
	ID        int64     `json:"id"`
	Clave     string    `json:"clave"`
	Nombre    string    `json:"nombre"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Clave  string
	Nombre string
}
