package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderIDFormat(t *testing.T) {
	now := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)

	id := GenerateOrderID(now)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20240101-[0-9A-F]{6}$`), id)
}

func TestGenerateOrderIDUnique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateOrderID(now)
		assert.False(t, seen[id], "identifiant dupliqué: %s", id)
		seen[id] = true
	}
}
