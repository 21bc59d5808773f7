package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Problem files are identified by the
// hash of their body.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DefaultKeyer produces keys of the form "tour:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TourKey hashes the problem hash together with the solver settings, so a
// change of solver, run count or seed never reuses a tour.
func (DefaultKeyer) TourKey(problemHash string, opts TourKeyOpts) string {
	// Marshalling a string and a flat struct cannot fail.
	body, _ := json.Marshal(struct {
		Problem string      `json:"problem"`
		Solver  TourKeyOpts `json:"solver"`
	}{problemHash, opts})
	return KeyTypeTour + ":" + Hash(body)
}
