package model

// MenuItem is one navigation link with its computed marker class.
type MenuItem struct {
	Href  string
	Label string
	Class string
}
