package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 1000},
		{"runes", strings.Repeat("é", 8), 2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, utils.CountTokens(c.in), c.name)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.NotEmpty(t, trunc)
	assert.Equal(t, "abc", utils.TruncateToTokenLimit("abc", 10))
	assert.Empty(t, utils.TruncateToTokenLimit("abc", 0))
}

func TestTokenBreakdownKeepsOrder(t *testing.T) {
	parts, total := utils.TokenBreakdown(
		utils.Section{Label: "system", Text: strings.Repeat("x", 40)},
		utils.Section{Label: "user", Text: "show sales"},
	)
	assert.Equal(t, []utils.SectionTokens{{"system", 10}, {"user", 2}}, parts)
	assert.Equal(t, 12, total)
}

func TestFitsContext(t *testing.T) {
	assert.True(t, utils.FitsContext(1000, 500, 0))
	assert.True(t, utils.FitsContext(1000, 500, 1500))
	assert.False(t, utils.FitsContext(1000, 501, 1500))
}
