package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Alphabet for human-facing codes. 0/O and 1/I stay in because the
// codes are shared as links far more often than typed.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomCode(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// GenerateInvitationCode returns the 6-character shared code printed on
// a meeting and embedded in its /join link.
func GenerateInvitationCode() (string, error) {
	return randomCode(6)
}

// GenerateChannelName returns the unique RTC channel identifier for a
// meeting.
func GenerateChannelName() (string, error) {
	suffix, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("meeting_%d_%s", time.Now().UnixMilli(), strings.ToLower(suffix)), nil
}

// GenerateUniqueInviteCode derives a single-use code for one external
// invitee from the meeting's shared code. The timestamp keeps codes for
// the same meeting distinct even across invitation re-sends.
func GenerateUniqueInviteCode(invitationCode string) (string, error) {
	suffix, err := randomCode(9)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(fmt.Sprintf("%s-%d-%s", invitationCode, time.Now().UnixMilli(), suffix)), nil
}

// NormalizeCode upper-cases and trims a user-supplied code so lookups
// are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
