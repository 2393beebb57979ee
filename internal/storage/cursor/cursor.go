// Package cursor provides opaque pagination tokens for walking a stored
// event log page by page.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cursor is the internal state of a pagination token: the next sequence to
// read and a hash binding the token to one game's log.
type Cursor struct {
	// Seq is the first sequence number of the next page.
	Seq uint64 `json:"seq"`
	// GameHash invalidates tokens replayed against a different game.
	GameHash string `json:"game_hash"`
}

// New creates a cursor pointing at the given sequence of a game's log.
func New(gameID string, seq uint64) Cursor {
	return Cursor{Seq: seq, GameHash: hashGame(gameID)}
}

// Encode encodes a cursor to an opaque base64 token.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque token and validates it against the game it is
// being used with. Malformed tokens and tokens minted for another game are
// rejected.
func Decode(token, gameID string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if c.GameHash != hashGame(gameID) {
		return Cursor{}, fmt.Errorf("cursor belongs to a different game")
	}
	return c, nil
}

// hashGame computes a short validation hash of the game id. 64 bits is
// plenty for token validation.
func hashGame(gameID string) string {
	h := sha256.Sum256([]byte(gameID))
	return hex.EncodeToString(h[:8])
}
