package mode

// Mode controls how the upstream search collapses printings.
type Mode string

// Unique mode constants.
const (
	// Cards returns one entry per card.
	Cards Mode = "cards"
	// Art returns one entry per unique artwork.
	Art Mode = "art"
	// Prints returns every printing.
	Prints Mode = "prints"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Cards || m == Art || m == Prints
}
