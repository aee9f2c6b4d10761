package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{name: "plain version", input: "1.4.7", want: Version{1, 4, 7}},
		{name: "zero version", input: "0.0.0", want: Version{0, 0, 0}},
		{name: "multi digit components", input: "10.20.300", want: Version{10, 20, 300}},
		{name: "two components", input: "1.4", wantErr: true},
		{name: "four components", input: "1.4.7.1", wantErr: true},
		{name: "v prefix", input: "v1.4.7", wantErr: true},
		{name: "prerelease suffix", input: "1.4.7-beta", wantErr: true},
		{name: "non numeric", input: "one.two.three", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncrement(t *testing.T) {
	v := MustParse("1.4.7")

	assert.Equal(t, "1.4.8", v.Increment().String())
	assert.Equal(t, "1.4.9", v.Increment().Increment().String())
	assert.Equal(t, "1.4.7", v.String(), "increment must not mutate the receiver")
}

func TestCompareIsNumeric(t *testing.T) {
	assert.Equal(t, 1, MustParse("1.10.0").Compare(MustParse("1.9.0")))
	assert.Equal(t, -1, MustParse("1.2.9").Compare(MustParse("1.2.10")))
	assert.Equal(t, 0, MustParse("2.0.0").Compare(MustParse("2.0.0")))
	assert.Equal(t, 1, MustParse("10.0.0").Compare(MustParse("9.99.99")))
}

func TestMustParsePanicsOnInvalidInput(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}
