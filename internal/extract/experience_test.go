package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		years int
		ok    bool
	}{
		{name: "range takes lower bound", text: "3-5 lat doświadczenia w analizie danych", years: 3, ok: true},
		{name: "plus form", text: "5+ lat doświadczenia w SQL", years: 5, ok: true},
		{name: "plain polish", text: "min. 2 lata doświadczenia", years: 2, ok: true},
		{name: "experience first", text: "Doświadczenie min. 3 lata na podobnym stanowisku", years: 3, ok: true},
		{name: "english years", text: "at least 4 years of experience with Power BI", years: 4, ok: true},
		{name: "english yrs", text: "7 yrs experience required", years: 7, ok: true},
		{name: "no figure", text: "brak wymagań", ok: false},
		{name: "empty", text: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			years, ok := ParseYears(tc.text)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.years, years)
			}
		})
	}
}
