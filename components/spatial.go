package components

// Domain identifies one of the two containers joined by the pipe.
type Domain uint8

const (
	DomainLeft Domain = iota
	DomainRight
)

// Domains lists both domains in grid order.
var Domains = [...]Domain{DomainLeft, DomainRight}

func (d Domain) String() string {
	switch d {
	case DomainLeft:
		return "left"
	case DomainRight:
		return "right"
	}
	return "unknown"
}

// CellCoord is a cell index within one domain grid.
type CellCoord struct {
	X, Y, Z int
}

// Home records where a particle was binned during the last categorization.
type Home struct {
	Domain Domain
	Cell   CellCoord
}
