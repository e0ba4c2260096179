package ballot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	in := strings.Join([]string{
		"Alice,Bob,Carol",
		"Alice,Carol",
		"Bob",
		"Carol,,Alice",
		",,",
	}, "\n")

	s, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, s.Candidates)
	require.Len(t, s.Ballots, 4)
	assert.Equal(t, []string{"Alice", "Carol"}, s.Ballots[0])
	assert.Equal(t, []string{"Bob"}, s.Ballots[1])
	// empty cells are unranked positions, not preferences
	assert.Equal(t, []string{"Carol", "Alice"}, s.Ballots[2])
	assert.Empty(t, s.Ballots[3])
}

func TestReadRanked(t *testing.T) {
	in := strings.Join([]string{
		"Alice,Bob,Carol",
		"2,1,3",
		",,1",
		"1,,",
	}, "\n")

	s, err := ReadRanked(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, s.Candidates)
	require.Len(t, s.Ballots, 3)
	assert.Equal(t, []string{"Bob", "Alice", "Carol"}, s.Ballots[0])
	assert.Equal(t, []string{"Carol"}, s.Ballots[1])
	assert.Equal(t, []string{"Alice"}, s.Ballots[2])
}

func TestReadRankedErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"duplicate rank", "A,B\n1,1"},
		{"non-numeric rank", "A,B\n1,x"},
		{"zero rank", "A,B\n0,1"},
		{"too many cells", "A,B\n1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRanked(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestReadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadRanked(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Read(strings.NewReader(",,\n"))
	assert.Error(t, err)
}

func TestReadHeaderOnly(t *testing.T) {
	s, err := Read(strings.NewReader("A,B,C\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, s.Candidates)
	assert.Empty(t, s.Ballots)
}
