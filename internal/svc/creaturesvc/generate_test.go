package creaturesvc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/mkrupp/bestiary/internal/svc/creaturesvc"
)

func TestHeadsFromPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prompt string
		want   int
	}{
		{prompt: "a hydra with 3 heads", want: 3},
		{prompt: "a hydra with 7 Heads", want: 7},
		{prompt: "une hydre à 4 têtes", want: 4},
		{prompt: "une hydre à 2 tetes", want: 2},
		{prompt: "a giant with 1 head", want: 1},
		{prompt: "a beast with 12 heads", want: 10},
		{prompt: "a beast with 99999999999999999999 heads", want: 10},
		{prompt: "a stump with 0 heads", want: 1},
		{prompt: "a hydra", want: 4},
		{prompt: "A Hydra", want: 4},
		{prompt: "a wandering spirit", want: 5},
		{prompt: "Une tortue géante", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, HeadsFromPrompt(tt.prompt))
		})
	}
}

func TestTypeNameFromPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prompt string
		want   string
		wantOK bool
	}{
		{prompt: "a fire drake with 3 heads", want: "Fire", wantOK: true},
		{prompt: "An ICE wyrm", want: "Ice", wantOK: true},
		{prompt: "THE KRAKEN of the deep", want: "Kraken", wantOK: true},
		{prompt: "Une tortue géante", want: "Tortue", wantOK: true},
		{prompt: "les loups-garous", want: "Loups-Garous", wantOK: true},
		{prompt: "cerbère enragé", want: "Cerbère", wantOK: true},
		{prompt: "123 !!!", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			t.Parallel()

			got, ok := TypeNameFromPrompt(tt.prompt)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
