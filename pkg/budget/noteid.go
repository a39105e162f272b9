package budget

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const noteTokenLen = 9

// 36^9; the token is the UUID's random bits reduced into this range.
const noteTokenSpace = 101559956668416

// NoteIDPattern matches identifiers produced by NewNoteID.
var NoteIDPattern = regexp.MustCompile(`^note_\d+_[0-9a-z]{9}$`)

// NewNoteID returns "note_<unix-millis>_<9 base-36 chars>". The token comes
// from the random bits of a UUIDv7, falling back to a v4 UUID if the v7
// generator fails.
func NewNoteID(now time.Time) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("note_%d_%s", now.UnixMilli(), noteToken(id))
}

func noteToken(id uuid.UUID) string {
	// Bytes 8..15 hold the variant bits followed by 62 random bits.
	n := binary.BigEndian.Uint64(id[8:]) & (1<<62 - 1)
	s := strconv.FormatUint(n%noteTokenSpace, 36)
	if len(s) < noteTokenLen {
		s = strings.Repeat("0", noteTokenLen-len(s)) + s
	}
	return s
}
