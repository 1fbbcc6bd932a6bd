package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	m := Default().Compile()

	tests := []struct {
		text string
		want int
	}{
		{"I love this, it's great", 2},
		{"I hate this, it's terrible and awful", -3},
		{"", 0},
		{"Thanks! thank you, THANK YOU", 3},
		{"LOVE love Love", 3},
		{"lovely greatness unhappy", 0},
		{"this sucks but I'm happy", 0},
		{"sad sad sad", -3},
		{"élove loveé", 0},
		{"café love, naïve hate", 0},
		{"Ünïcode LOVE_ love2 love", 1},
		{"ΑΓΆΠΗ love", 1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Score(tt.text))
		})
	}
}

func TestMultiTokenEntries(t *testing.T) {
	m := Lexicon{Negative: []string{"can't", "let down"}}.Compile()

	assert.Equal(t, 1, m.Negative("I can't believe it"))
	assert.Equal(t, 1, m.Negative("what a LET DOWN"))
	assert.Equal(t, 0, m.Negative("cant"))
	assert.Equal(t, 0, m.Negative("let me down"))
}

func TestIsComplaint(t *testing.T) {
	m := Default().Compile()

	assert.True(t, m.IsComplaint("I DON'T like mondays"))
	assert.True(t, m.IsComplaint("whatever, this hateful thing")) // substring, not whole word
	assert.True(t, m.IsComplaint("can't stand it"))
	assert.False(t, m.IsComplaint("what a lovely day"))
	assert.False(t, m.IsComplaint(""))
}

func TestParseFallsBackToDefaults(t *testing.T) {
	lex, err := Parse([]byte("positive:\n  - Brilliant\n  - ' neat '\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"brilliant", "neat"}, lex.Positive)
	assert.Equal(t, Default().Negative, lex.Negative)
	assert.Equal(t, Default().Complaint, lex.Complaint)

	m := lex.Compile()
	assert.Equal(t, 2, m.Score("Brilliant and neat"))
	assert.Equal(t, 0, m.Score("I love it"))
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("positive: [unterminated"))
	assert.Error(t, err)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	data, err := Default().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	lex, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), lex)
}

func TestEmptyListsNeverMatch(t *testing.T) {
	m := Lexicon{}.Compile()
	assert.Equal(t, 0, m.Score("love hate"))
	assert.False(t, m.IsComplaint("hate"))
}
