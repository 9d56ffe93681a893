package services

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"camelsrating/internal/camels"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies a rating run by everything that determines its
// output: the observations in order, the scheme and the options that change
// results. Concurrency limits and timeouts are not part of it.
func Fingerprint(obs []camels.Observation, scheme camels.Scheme, opts camels.Options) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("create hash: %w", err)
	}

	enc := json.NewEncoder(h)
	if err := enc.Encode(scheme); err != nil {
		return "", fmt.Errorf("encode scheme: %w", err)
	}
	fmt.Fprintf(h, "backfill_lags=%t\n", opts.BackfillLags)
	for i := range obs {
		if err := enc.Encode(&obs[i]); err != nil {
			return "", fmt.Errorf("encode row %d: %w", i+1, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
