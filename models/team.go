package models

// Conference identifies one of the two NBA conferences.
type Conference string

const (
	ConferenceEast Conference = "East"
	ConferenceWest Conference = "West"
)

func (c Conference) Valid() bool {
	return c == ConferenceEast || c == ConferenceWest
}

// Conferences returns both conferences in display order, East first.
func Conferences() []Conference {
	return []Conference{ConferenceEast, ConferenceWest}
}

type Team struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Conference Conference `json:"conference"`
}
