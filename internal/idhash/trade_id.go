package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(token_id|preset|opened_at_ms)
// A token holds at most one open position, so the open time disambiguates re-entries.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	tokenID string,
	preset string,
	openedAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%d",
		tokenID,
		preset,
		openedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeDigest hashes an ordered list of canonical record lines.
// Each line is terminated with '\n' before hashing so that
// ["ab", "c"] and ["a", "bc"] produce different digests.
func ComputeDigest(lines []string) string {
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
