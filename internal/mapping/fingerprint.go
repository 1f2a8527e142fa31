package mapping

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3 hash of the config's canonical JSON
// encoding. Event records carry it so a debug trail can be matched to
// the exact config revision that produced the decision.
func (c Config) Fingerprint() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
