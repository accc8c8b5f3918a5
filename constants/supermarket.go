package constants

// SupermarketType identifies a partnered supermarket with its own expiry data.
type SupermarketType string

const (
	FairPrice SupermarketType = "FairPrice"
	Giant     SupermarketType = "Giant"
)
