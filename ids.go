package combo

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a session identifier for enter/leave game reporting.
// The same session id must be used for both calls of one game session.
func NewSessionID(comboID string) string {
	return digest(comboID + strconv.FormatInt(time.Now().UnixNano(), 10) + uuid.NewString())
}

// NewNonce returns a random 32 character lowercase hex string.
func NewNonce() string {
	return digest(strconv.FormatInt(time.Now().UnixNano(), 10) + uuid.NewString())
}

func digest(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
